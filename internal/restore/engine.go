package restore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/docs"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/metadata"
	"github.com/dmitrijs2005/bizsync/internal/logging"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/dmitrijs2005/bizsync/internal/progress"
)

// Summary describes what a restore managed to bring back.
type Summary struct {
	OwnerID  string        `json:"ownerId"`
	Restored models.Counts `json:"restored"`
	// Skipped counts documents that could not be decoded or saved.
	Skipped int `json:"skipped"`
	// Defaulted counts fields that fell back to a default value.
	Defaulted          int       `json:"defaulted"`
	DuplicateCustomers int       `json:"duplicateCustomers"`
	NulledCustomerRefs int       `json:"nulledCustomerRefs"`
	Warnings           []string  `json:"warnings,omitempty"`
	StartedAt          time.Time `json:"startedAt"`
	FinishedAt         time.Time `json:"finishedAt"`
}

func (s *Summary) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

type Engine struct {
	local  *localstore.Store
	remote docstore.Store
	log    logging.Logger
	now    func() time.Time
}

func NewEngine(local *localstore.Store, remote docstore.Store, log logging.Logger) *Engine {
	return &Engine{local: local, remote: remote, log: log, now: time.Now}
}

// run carries the state of one restore.
type run struct {
	*Engine
	ownerID string
	log     logging.Logger
	sum     *Summary
	tr      *progress.Tracker
}

type step struct {
	name    string
	percent int
	fn      func(ctx context.Context) (int, error)
	count   *int
}

// RestoreFromBackup replaces ownerID's local data with the remote copy.
func (e *Engine) RestoreFromBackup(ctx context.Context, ownerID string, onProgress progress.Func) (*Summary, error) {
	if ownerID == "" {
		return nil, common.ErrNoSession
	}
	r := &run{
		Engine:  e,
		ownerID: ownerID,
		log:     e.log.With("owner_id", ownerID),
		sum:     &Summary{OwnerID: ownerID, StartedAt: e.now()},
		tr:      progress.NewTracker(onProgress),
	}

	r.tr.Report(0, "Clearing local data")
	if err := e.local.ClearOwner(ctx, ownerID); err != nil {
		r.log.Error(ctx, "restore: clear failed", "error", err)
		return nil, fmt.Errorf("failed to clear local data: %w", err)
	}
	r.tr.Report(5, "Local data cleared")

	c := &r.sum.Restored
	steps := []step{
		{"products", 20, r.products, &c.Products},
		{"customers", 35, r.customers, &c.Customers},
		{"collections", 50, r.collections, &c.Collections},
		{"custom categories", 60, r.categories, &c.CustomCategories},
		{"sales", 72, r.sales, &c.Sales},
		{"expenses", 82, r.expenses, &c.Expenses},
		{"invoices", 90, r.invoices, &c.Invoices},
		{"stock movements", 96, r.stockMovements, &c.StockMovements},
	}
	for _, s := range steps {
		r.tr.Report(r.tr.Last(), "Restoring "+s.name)
		n, err := s.fn(ctx)
		*s.count = n
		if err != nil {
			r.log.Warn(ctx, "restore: entity type skipped", "entity", s.name, "error", err)
			r.sum.warn("%s not restored: %v", s.name, err)
		}
		r.tr.Report(s.percent, fmt.Sprintf("Restored %d %s", n, s.name))
	}

	if n, err := e.local.Repos.Collections.CountItems(ctx, ownerID); err == nil {
		c.CollectionItems = n
	}

	r.sum.FinishedAt = e.now()
	if err := e.local.Repos.Metadata.SetJSON(ctx, metadata.Key(metadata.KindLastRestore, ownerID), r.sum); err != nil {
		r.log.Warn(ctx, "restore: failed to record restore metadata", "error", err)
	}
	r.log.Info(ctx, "restore finished",
		"records", c.Total(), "skipped", r.sum.Skipped,
		"defaulted", r.sum.Defaulted, "warnings", len(r.sum.Warnings))
	r.tr.Report(100, "Restore complete")
	return r.sum, nil
}

// each decodes and saves every document of one remote collection. A row
// that fails either step is skipped; only a failed listing is returned.
func each[T any](ctx context.Context, r *run, entity, path string,
	decode func(docstore.Document) (T, docs.Report, error),
	save func(context.Context, T) error,
) (int, error) {
	list, err := r.remote.List(ctx, path)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, doc := range list {
		v, rep, err := decode(doc)
		if err != nil {
			r.skip(ctx, entity, doc.ID, err)
			continue
		}
		r.defaulted(ctx, rep)
		if err := save(ctx, v); err != nil {
			r.skip(ctx, entity, doc.ID, err)
			continue
		}
		saved++
	}
	return saved, nil
}

func (r *run) skip(ctx context.Context, entity, docID string, err error) {
	r.sum.Skipped++
	r.log.Warn(ctx, "restore: document skipped", "entity", entity, "doc_id", docID, "error", err)
	r.sum.warn("%s %s skipped: %v", entity, docID, err)
}

func (r *run) defaulted(ctx context.Context, rep docs.Report) {
	if rep.Clean() {
		return
	}
	r.sum.Defaulted += len(rep.Fallbacks)
	r.log.Debug(ctx, "restore: fields defaulted",
		"entity", rep.Entity, "doc_id", rep.DocID, "fields", rep.Fallbacks)
}
