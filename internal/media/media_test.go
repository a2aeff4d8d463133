package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocalRef(t *testing.T) {
	cases := map[string]bool{
		"/data/img.jpg":                  true,
		"file:///data/img.jpg":           true,
		"content://media/external/1":     true,
		"https://cdn.example.com/a.jpg":  false,
		"http://minio:9000/b/products/1": false,
		"relative/img.jpg":               false,
		"":                               false,
	}
	for ref, want := range cases {
		assert.Equal(t, want, IsLocalRef(ref), ref)
	}
}

func TestKey(t *testing.T) {
	at := time.UnixMilli(1709287200123)
	assert.Equal(t, "products/p1/photo_1709287200123.jpg", Key("p1", KindPhoto, at))
	assert.Equal(t, "products/p1/thumbnail_1709287200123.jpg", Key("p1", KindThumbnail, at))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolve_PathAndFileURL(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.jpg")
	writeFile(t, p, "jpeg-bytes")

	r := NewResolver("", "")
	for _, ref := range []string{p, "file://" + p} {
		img, err := r.Resolve(context.Background(), ref)
		require.NoError(t, err, ref)
		assert.Equal(t, p, img.Path)
		assert.Equal(t, int64(10), img.Size)
		require.NoError(t, img.Close())
		_, err = os.Stat(p)
		assert.NoError(t, err, "original must survive Close")
	}
}

func TestResolve_Missing(t *testing.T) {
	_, err := NewResolver("", "").Resolve(context.Background(), "/data/missing.jpg")
	assert.ErrorIs(t, err, common.ErrImageMissing)
}

func TestResolve_Empty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.jpg")
	writeFile(t, p, "")
	_, err := NewResolver("", "").Resolve(context.Background(), p)
	assert.ErrorIs(t, err, common.ErrImageEmpty)
}

func TestResolve_Directory(t *testing.T) {
	_, err := NewResolver("", "").Resolve(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, common.ErrImageUnreadable)
}

func TestResolve_ContentURI(t *testing.T) {
	root := t.TempDir()
	tmp := t.TempDir()
	writeFile(t, filepath.Join(root, "media", "external", "images", "42"), "picture")

	r := NewResolver(root, tmp)
	img, err := r.Resolve(context.Background(), "content://media/external/images/42")
	require.NoError(t, err)
	assert.Equal(t, tmp, filepath.Dir(img.Path))
	assert.Equal(t, int64(7), img.Size)

	f, err := img.Open()
	require.NoError(t, err)
	buf := make([]byte, 7)
	_, err = f.Read(buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "picture", string(buf))

	require.NoError(t, img.Close())
	_, err = os.Stat(img.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_ContentURIWithoutRoot(t *testing.T) {
	_, err := NewResolver("", "").Resolve(context.Background(), "content://media/1")
	assert.ErrorIs(t, err, common.ErrNoContentResolver)
}

func TestResolve_ContentURIMissingAndEscaping(t *testing.T) {
	r := NewResolver(t.TempDir(), t.TempDir())
	_, err := r.Resolve(context.Background(), "content://media/nope")
	assert.ErrorIs(t, err, common.ErrImageMissing)

	_, err = r.Resolve(context.Background(), "content://../../etc/passwd")
	assert.Error(t, err)
}

func TestResolve_RemoteRefRejected(t *testing.T) {
	_, err := NewResolver("", "").Resolve(context.Background(), "https://cdn/a.jpg")
	assert.ErrorIs(t, err, common.ErrImageUnreadable)
}

func TestResolve_ContentURICreatesTempDir(t *testing.T) {
	root := t.TempDir()
	tmp := filepath.Join(t.TempDir(), "spool", "images")
	writeFile(t, filepath.Join(root, "media", "7"), "px")

	img, err := NewResolver(root, tmp).Resolve(context.Background(), "content://media/7")
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, tmp, filepath.Dir(img.Path))
}

func TestResolve_ContentURIDotPrefixedName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "..cache", "..foo.jpg"), "px")

	img, err := NewResolver(root, t.TempDir()).Resolve(context.Background(), "content://..cache/..foo.jpg")
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, int64(2), img.Size)
}
