// Package expenses persists expenses in the local cache.
package expenses

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Expense, error)
	Upsert(ctx context.Context, ownerID string, e models.Expense) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount, category, date, status, created_at, updated_at
		FROM expenses WHERE owner_id = ? ORDER BY date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var result []models.Expense
	for rows.Next() {
		var (
			e                      models.Expense
			date, created, updated int64
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &date, &e.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Date = dbx.FromMillis(date)
		e.CreatedAt = dbx.FromMillis(created)
		e.UpdatedAt = dbx.FromMillis(updated)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, e models.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (owner_id, id, description, amount, category, date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			description = excluded.description,
			amount = excluded.amount,
			category = excluded.category,
			date = excluded.date,
			status = excluded.status,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, ownerID, e.ID, e.Description, e.Amount, e.Category, dbx.Millis(e.Date), e.Status,
		dbx.Millis(e.CreatedAt), dbx.Millis(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert expense %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete expenses: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}
