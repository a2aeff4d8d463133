package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/docstore/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore keeps every document as one JSONB row of the documents table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects through the pgx stdlib driver and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping document store: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate document store: %w", err)
	}
	return s, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, s.db, ".")
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Get(ctx context.Context, docPath string) (*Document, error) {
	_, id, err := SplitDocPath(docPath)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = $1`, docPath).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", docPath, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", docPath, err)
	}

	fields, err := decodeFields(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", docPath, err)
	}
	return &Document{ID: id, Path: docPath, Fields: fields}, nil
}

func (s *PostgresStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := CheckCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, doc_id, data FROM documents WHERE parent = $1 ORDER BY doc_id`, collectionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collectionPath, err)
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		var (
			d    Document
			data []byte
		)
		if err := rows.Scan(&d.Path, &d.ID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if d.Fields, err = decodeFields(data); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", d.Path, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collectionPath, err)
	}
	return result, nil
}

func (s *PostgresStore) Batch() Batch {
	return &postgresBatch{store: s}
}

const upsertDocument = `INSERT INTO documents (path, parent, doc_id, data, updated_at)
VALUES ($1, $2, $3, $4::jsonb, now())
ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

type postgresBatch struct {
	store *PostgresStore
	q     opQueue
}

func (b *postgresBatch) Set(docPath string, fields map[string]any) { b.q.set(docPath, fields) }

func (b *postgresBatch) Len() int { return b.q.len() }

// Commit writes all queued documents in one transaction.
func (b *postgresBatch) Commit(ctx context.Context) error {
	if b.q.err != nil {
		return b.q.err
	}
	if len(b.q.ops) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, b.store.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, o := range b.q.ops {
			res, err := tx.ExecContext(ctx, upsertDocument, o.path, o.parent, o.id, string(o.data))
			if err != nil {
				return fmt.Errorf("failed to upsert document %s: %w", o.path, err)
			}
			if err := dbx.ExpectRows(res, 1); err != nil {
				return fmt.Errorf("upsert %s: %w", o.path, err)
			}
		}
		return nil
	})
}
