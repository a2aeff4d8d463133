// Package customers persists customers in the local cache.
package customers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Customer, error)
	Upsert(ctx context.Context, ownerID string, c models.Customer) error
	Exists(ctx context.Context, ownerID, id string) (bool, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, email, address, notes, total_purchases, last_purchase_at,
			access_token, is_active, created_at, updated_at
		FROM customers WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var result []models.Customer
	for rows.Next() {
		var (
			c                models.Customer
			lastPurchase     sql.NullInt64
			token            sql.NullString
			active           int
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.TotalPurchases,
			&lastPurchase, &token, &active, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.LastPurchaseAt = dbx.TimePtr(lastPurchase)
		c.AccessToken = token.String
		c.IsActive = active == 1
		c.CreatedAt = dbx.FromMillis(created)
		c.UpdatedAt = dbx.FromMillis(updated)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return result, nil
}

// Upsert replaces an existing customer with the same id.
func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, c models.Customer) error {
	token := sql.NullString{String: c.AccessToken, Valid: c.AccessToken != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (owner_id, id, name, phone, email, address, notes, total_purchases,
			last_purchase_at, access_token, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			address = excluded.address,
			notes = excluded.notes,
			total_purchases = excluded.total_purchases,
			last_purchase_at = excluded.last_purchase_at,
			access_token = excluded.access_token,
			is_active = excluded.is_active,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, ownerID, c.ID, c.Name, c.Phone, c.Email, c.Address, c.Notes, c.TotalPurchases,
		dbx.NullMillis(c.LastPurchaseAt), token, dbx.BoolInt(c.IsActive),
		dbx.Millis(c.CreatedAt), dbx.Millis(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert customer %s: %w", c.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, ownerID, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE owner_id = ? AND id = ?`, ownerID, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check customer %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete customers: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}
