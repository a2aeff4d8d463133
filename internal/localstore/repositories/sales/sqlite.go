// Package sales persists sales in the local cache. Items keep the legacy
// serialized string form (see models.EncodeSaleItems).
package sales

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Sale, error)
	Upsert(ctx context.Context, ownerID string, s models.Sale) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, items, total, date, payment_method, status, customer_id, customer_name,
			cancel_reason, canceled_at, created_at, updated_at
		FROM sales WHERE owner_id = ? ORDER BY date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var result []models.Sale
	for rows.Next() {
		var (
			s                      models.Sale
			status                 string
			customerID, reason     sql.NullString
			canceledAt             sql.NullInt64
			date, created, updated int64
		)
		if err := rows.Scan(&s.ID, &s.Items, &s.Total, &date, &s.PaymentMethod, &status, &customerID,
			&s.CustomerName, &reason, &canceledAt, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		s.Status = models.SaleStatus(status)
		s.CustomerID = dbx.StringPtr(customerID)
		s.CancelReason = dbx.StringPtr(reason)
		s.CanceledAt = dbx.TimePtr(canceledAt)
		s.Date = dbx.FromMillis(date)
		s.CreatedAt = dbx.FromMillis(created)
		s.UpdatedAt = dbx.FromMillis(updated)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, s models.Sale) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sales (owner_id, id, items, total, date, payment_method, status, customer_id,
			customer_name, cancel_reason, canceled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			items = excluded.items,
			total = excluded.total,
			date = excluded.date,
			payment_method = excluded.payment_method,
			status = excluded.status,
			customer_id = excluded.customer_id,
			customer_name = excluded.customer_name,
			cancel_reason = excluded.cancel_reason,
			canceled_at = excluded.canceled_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, ownerID, s.ID, s.Items, s.Total, dbx.Millis(s.Date), s.PaymentMethod, string(s.Status),
		dbx.NullString(s.CustomerID), s.CustomerName, dbx.NullString(s.CancelReason),
		dbx.NullMillis(s.CanceledAt), dbx.Millis(s.CreatedAt), dbx.Millis(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert sale %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete sales: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return n, nil
}
