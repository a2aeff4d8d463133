// Package media resolves product image references that still point at the
// local device and checks that they can be uploaded.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/filex"
	"github.com/google/uuid"
)

const (
	KindPhoto     = "photo"
	KindThumbnail = "thumbnail"

	ContentType = "image/jpeg"
)

// IsLocalRef reports whether ref names a local file rather than a remote URL.
func IsLocalRef(ref string) bool {
	switch {
	case ref == "":
		return false
	case strings.HasPrefix(ref, "file://"), strings.HasPrefix(ref, "content://"):
		return true
	}
	return filepath.IsAbs(ref)
}

// Key is the blob key of a product image uploaded at time at.
func Key(productID, kind string, at time.Time) string {
	return fmt.Sprintf("products/%s/%s_%d.jpg", productID, kind, at.UnixMilli())
}

// Image is a validated, readable local image. Close removes any temporary
// copy made while resolving it.
type Image struct {
	Path string
	Size int64

	temp bool
}

func (i *Image) Open() (*os.File, error) {
	f, err := os.Open(i.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrImageUnreadable, err)
	}
	return f, nil
}

func (i *Image) Close() error {
	if !i.temp {
		return nil
	}
	if err := os.Remove(i.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolver maps local references to files. content:// URIs are looked up
// below ContentRoot as <root>/<authority>/<path> and copied into TempDir.
type Resolver struct {
	ContentRoot string
	TempDir     string
}

func NewResolver(contentRoot, tempDir string) *Resolver {
	return &Resolver{ContentRoot: contentRoot, TempDir: tempDir}
}

func (r *Resolver) Resolve(ctx context.Context, ref string) (*Image, error) {
	switch {
	case strings.HasPrefix(ref, "content://"):
		return r.resolveContent(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrImageUnreadable, ref, err)
		}
		return validate(u.Path)
	case filepath.IsAbs(ref):
		return validate(ref)
	}
	return nil, fmt.Errorf("%w: %q is not a local reference", common.ErrImageUnreadable, ref)
}

func (r *Resolver) resolveContent(ctx context.Context, ref string) (*Image, error) {
	if r.ContentRoot == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrNoContentResolver, ref)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrImageUnreadable, ref, err)
	}

	root, err := filepath.Abs(r.ContentRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: content root: %v", common.ErrImageUnreadable, err)
	}
	src := filepath.Join(root, u.Host, filepath.FromSlash(u.Path))
	if rel, err := filepath.Rel(root, src); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s escapes the content root", common.ErrImageUnreadable, ref)
	}

	if _, err := validate(src); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := r.copyToTemp(src)
	if err != nil {
		return nil, err
	}
	img, err := validate(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	img.temp = true
	return img, nil
}

func (r *Resolver) copyToTemp(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrImageUnreadable, err)
	}
	defer in.Close()

	dir := os.TempDir()
	if r.TempDir != "" {
		if dir, err = filex.EnsureDir(r.TempDir); err != nil {
			return "", fmt.Errorf("create temp image: %w", err)
		}
	}
	dst := filepath.Join(dir, "content-"+uuid.NewString()+".jpg")
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("%w: copy %s: %v", common.ErrImageUnreadable, src, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close temp image: %w", err)
	}
	return dst, nil
}

// validate checks that path exists, is a non-empty regular file and can be
// opened for reading.
func validate(path string) (*Image, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrImageMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrImageUnreadable, path, err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", common.ErrImageUnreadable, path)
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrImageEmpty, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrImageUnreadable, path, err)
	}
	_ = f.Close()
	return &Image{Path: path, Size: st.Size()}, nil
}
