package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/blobstore"
	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/metadata"
	"github.com/dmitrijs2005/bizsync/internal/logging"
	"github.com/dmitrijs2005/bizsync/internal/media"
	"github.com/dmitrijs2005/bizsync/internal/mirror"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/progress"
	"github.com/google/uuid"
)

// Summary describes a successful backup.
type Summary struct {
	BackupID       string        `json:"backupId"`
	OwnerID        string        `json:"ownerId"`
	Counts         models.Counts `json:"counts"`
	Documents      int           `json:"documents"`
	ImagesUploaded int           `json:"imagesUploaded"`
	MirrorCopied   int           `json:"mirrorCopied"`
	Warnings       []string      `json:"warnings,omitempty"`
	StartedAt      time.Time     `json:"startedAt"`
	FinishedAt     time.Time     `json:"finishedAt"`
}

type Engine struct {
	local  *localstore.Store
	remote docstore.Store
	blobs  blobstore.Store
	images *media.Resolver
	mirror *mirror.Syncer
	log    logging.Logger

	now   func() time.Time
	newID func() string
}

// NewEngine wires a backup engine. mirror may be nil to skip chat sync.
func NewEngine(local *localstore.Store, remote docstore.Store, blobs blobstore.Store,
	images *media.Resolver, mirror *mirror.Syncer, log logging.Logger) *Engine {
	return &Engine{
		local:  local,
		remote: remote,
		blobs:  blobs,
		images: images,
		mirror: mirror,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// snapshot is everything one owner holds locally.
type snapshot struct {
	products       []models.Product
	customers      []models.Customer
	sales          []models.Sale
	expenses       []models.Expense
	collections    []models.Collection
	invoices       []models.Invoice
	categories     []models.CustomCategory
	stockMovements []models.StockMovement
}

func (s *snapshot) counts() models.Counts {
	items := 0
	for _, c := range s.collections {
		items += len(c.Items)
	}
	return models.Counts{
		Products:         len(s.products),
		Customers:        len(s.customers),
		Sales:            len(s.sales),
		Expenses:         len(s.expenses),
		Collections:      len(s.collections),
		CollectionItems:  items,
		Invoices:         len(s.invoices),
		CustomCategories: len(s.categories),
		StockMovements:   len(s.stockMovements),
	}
}

// checkIDs rejects records whose ids cannot become document path segments.
func (s *snapshot) checkIDs() error {
	check := func(kind, id string) error {
		if err := docstore.CheckID(id); err != nil {
			return fmt.Errorf("%s %q: %w", kind, id, err)
		}
		return nil
	}

	for _, p := range s.products {
		if err := check("product", p.ID); err != nil {
			return err
		}
	}
	for _, c := range s.customers {
		if err := check("customer", c.ID); err != nil {
			return err
		}
	}
	for _, sl := range s.sales {
		if err := check("sale", sl.ID); err != nil {
			return err
		}
	}
	for _, x := range s.expenses {
		if err := check("expense", x.ID); err != nil {
			return err
		}
	}
	for _, c := range s.collections {
		if err := check("collection", c.ID); err != nil {
			return err
		}
		for _, it := range c.Items {
			if err := check("collection item", it.ProductID); err != nil {
				return fmt.Errorf("collection %s: %w", c.ID, err)
			}
		}
	}
	for _, i := range s.invoices {
		if err := check("invoice", i.ID); err != nil {
			return err
		}
	}
	for _, g := range s.categories {
		if err := check("custom category", g.ID); err != nil {
			return err
		}
	}
	for _, m := range s.stockMovements {
		if err := check("stock movement", m.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateFullBackup backs up everything ownerID holds locally. Any error it
// returns is an *Error.
func (e *Engine) CreateFullBackup(ctx context.Context, ownerID string, onProgress progress.Func) (*Summary, error) {
	tr := progress.NewTracker(onProgress)
	log := e.log.With("owner_id", ownerID)
	sum := &Summary{BackupID: e.newID(), OwnerID: ownerID, StartedAt: e.now()}

	if ownerID == "" {
		return nil, fail(StageRead, common.ErrNoSession)
	}

	tr.Report(0, "Reading local data")
	snap, err := e.read(ctx, ownerID)
	if err != nil {
		return nil, fail(StageRead, err)
	}
	if err := snap.checkIDs(); err != nil {
		log.Error(ctx, "backup: unusable local id", "error", err)
		return nil, fail(StageRead, err)
	}
	sum.Counts = snap.counts()
	tr.Report(10, "Local data loaded")

	changed, uploaded, err := e.uploadImages(ctx, snap.products, tr)
	if err != nil {
		log.Error(ctx, "backup: image upload failed", "error", err)
		return nil, fail(StageImages, err)
	}
	sum.ImagesUploaded = uploaded

	for _, p := range changed {
		if err := e.local.Repos.Products.UpdateImageURLs(ctx, ownerID, p.ID, p.PhotoURL, p.ThumbnailURL); err != nil {
			log.Warn(ctx, "backup: failed to save uploaded image urls locally", "product_id", p.ID, "error", err)
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("product %s: image urls not saved locally: %v", p.ID, err))
		}
	}
	tr.Report(45, "Preparing documents")

	batch := e.remote.Batch()
	sum.Warnings = append(sum.Warnings, e.fill(ctx, batch, ownerID, snap, sum)...)
	sum.Documents = batch.Len()
	tr.Report(60, "Writing documents")

	if err := batch.Commit(ctx); err != nil {
		log.Error(ctx, "backup: commit failed", "documents", sum.Documents, "error", err)
		return nil, fail(StageCommit, err)
	}
	tr.Report(85, "Documents written")

	if e.mirror != nil {
		ids := make([]string, 0, len(snap.collections))
		for _, c := range snap.collections {
			ids = append(ids, c.ID)
		}
		rep := e.mirror.SyncChatsAndResponses(ctx, ownerID, ids, progress.Scale(tr.Report, 85, 98))
		sum.MirrorCopied = rep.Copied
		for _, w := range rep.Warnings {
			sum.Warnings = append(sum.Warnings, w.String())
		}
	}

	sum.FinishedAt = e.now()
	if err := e.local.Repos.Metadata.SetJSON(ctx, metadata.Key(metadata.KindLastBackup, ownerID), sum); err != nil {
		log.Warn(ctx, "backup: failed to record backup metadata", "error", err)
	}

	log.Info(ctx, "backup finished",
		"backup_id", sum.BackupID, "documents", sum.Documents,
		"images", sum.ImagesUploaded, "warnings", len(sum.Warnings))
	tr.Report(100, "Backup complete")
	return sum, nil
}

func (e *Engine) read(ctx context.Context, ownerID string) (*snapshot, error) {
	r := e.local.Repos
	s := &snapshot{}
	var err error

	if s.products, err = r.Products.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.customers, err = r.Customers.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.sales, err = r.Sales.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.expenses, err = r.Expenses.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.collections, err = r.Collections.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.invoices, err = r.Invoices.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.categories, err = r.Categories.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if s.stockMovements, err = r.StockMovements.ListByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return s, nil
}
