package backup

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/media"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/progress"
)

// uploadImages replaces local image references in products with blob URLs.
// products is updated in place; changed holds the products whose URLs
// moved. The first failure aborts.
func (e *Engine) uploadImages(ctx context.Context, products []models.Product, tr *progress.Tracker) (changed []models.Product, uploaded int, err error) {
	for i := range products {
		p := &products[i]
		tr.Step(10, 40, i, len(products), "Uploading images")

		moved := false
		for _, ref := range []struct {
			kind string
			url  *string
		}{
			{media.KindPhoto, &p.PhotoURL},
			{media.KindThumbnail, &p.ThumbnailURL},
		} {
			if !media.IsLocalRef(*ref.url) {
				continue
			}
			remote, err := e.upload(ctx, p.ID, ref.kind, *ref.url)
			if err != nil {
				return nil, uploaded, fmt.Errorf("product %s %s: %w", p.ID, ref.kind, err)
			}
			*ref.url = remote
			uploaded++
			moved = true
		}
		if moved {
			changed = append(changed, *p)
		}
	}
	tr.Report(40, "Images uploaded")
	return changed, uploaded, nil
}

func (e *Engine) upload(ctx context.Context, productID, kind, ref string) (string, error) {
	img, err := e.images.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := img.Close(); cerr != nil {
			e.log.Warn(ctx, "backup: failed to remove temp image", "path", img.Path, "error", cerr)
		}
	}()

	f, err := img.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return e.blobs.Put(ctx, media.Key(productID, kind, e.now()), f, img.Size, media.ContentType)
}
