// Package categories persists owner-defined product categories. Unlike the
// other tables, timestamps are kept as ISO-8601 strings.
package categories

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.CustomCategory, error)
	Upsert(ctx context.Context, c models.CustomCategory) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.CustomCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, icon, color, sort_order, is_active, created_at, updated_at
		FROM custom_categories WHERE owner_id = ? ORDER BY sort_order, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var result []models.CustomCategory
	for rows.Next() {
		var (
			c      models.CustomCategory
			active int
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &c.Color, &c.SortOrder, &active,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.IsActive = active == 1
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return result, nil
}

// Upsert writes c under c.OwnerID.
func (r *SQLiteRepository) Upsert(ctx context.Context, c models.CustomCategory) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO custom_categories (owner_id, id, name, icon, color, sort_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			color = excluded.color,
			sort_order = excluded.sort_order,
			is_active = excluded.is_active,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, c.OwnerID, c.ID, c.Name, c.Icon, c.Color, c.SortOrder, dbx.BoolInt(c.IsActive), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert category %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM custom_categories WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete categories: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM custom_categories WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return n, nil
}
