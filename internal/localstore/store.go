package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/localstore/migrations"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/categories"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/collections"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/customers"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/expenses"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/invoices"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/metadata"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/products"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/sales"
	"github.com/dmitrijs2005/bizsync/internal/localstore/repositories/stockmovements"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Products       products.Repository
	Customers      customers.Repository
	Sales          sales.Repository
	Expenses       expenses.Repository
	Collections    collections.Repository
	Invoices       invoices.Repository
	Categories     categories.Repository
	StockMovements stockmovements.Repository
	Metadata       metadata.Repository
}

// NewRepositories binds every repository to db, which may be a transaction.
func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Products:       products.NewSQLiteRepository(db),
		Customers:      customers.NewSQLiteRepository(db),
		Sales:          sales.NewSQLiteRepository(db),
		Expenses:       expenses.NewSQLiteRepository(db),
		Collections:    collections.NewSQLiteRepository(db),
		Invoices:       invoices.NewSQLiteRepository(db),
		Categories:     categories.NewSQLiteRepository(db),
		StockMovements: stockmovements.NewSQLiteRepository(db),
		Metadata:       metadata.NewSQLiteRepository(db),
	}
}

type Store struct {
	db    *sql.DB
	Repos *Repositories
}

func New(db *sql.DB) *Store {
	return &Store{db: db, Repos: NewRepositories(db)}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open opens (creating if needed) the SQLite database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	return New(db), nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn with repositories bound to one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// ClearOwner deletes every entity row of ownerID. Metadata is kept.
func (s *Store) ClearOwner(ctx context.Context, ownerID string) error {
	return s.WithTx(ctx, func(ctx context.Context, r *Repositories) error {
		steps := []func(context.Context, string) error{
			r.Products.DeleteByOwner,
			r.Customers.DeleteByOwner,
			r.Sales.DeleteByOwner,
			r.Expenses.DeleteByOwner,
			r.Collections.DeleteByOwner,
			r.Invoices.DeleteByOwner,
			r.StockMovements.DeleteByOwner,
			r.Categories.DeleteByOwner,
		}
		for _, del := range steps {
			if err := del(ctx, ownerID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Counts returns the number of rows of each entity held for ownerID.
func (s *Store) Counts(ctx context.Context, ownerID string) (models.Counts, error) {
	var (
		c   models.Counts
		err error
	)
	r := s.Repos
	counters := []struct {
		dst *int
		fn  func(context.Context, string) (int, error)
	}{
		{&c.Products, r.Products.Count},
		{&c.Customers, r.Customers.Count},
		{&c.Sales, r.Sales.Count},
		{&c.Expenses, r.Expenses.Count},
		{&c.Collections, r.Collections.Count},
		{&c.CollectionItems, r.Collections.CountItems},
		{&c.Invoices, r.Invoices.Count},
		{&c.CustomCategories, r.Categories.Count},
		{&c.StockMovements, r.StockMovements.Count},
	}
	for _, ct := range counters {
		if *ct.dst, err = ct.fn(ctx, ownerID); err != nil {
			return models.Counts{}, err
		}
	}
	return c, nil
}
