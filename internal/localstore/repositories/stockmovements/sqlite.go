// Package stockmovements persists inventory movements in the local cache.
package stockmovements

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.StockMovement, error)
	Upsert(ctx context.Context, ownerID string, m models.StockMovement) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.StockMovement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, type, quantity, unit_cost, reason, timestamp
		FROM stock_movements WHERE owner_id = ? ORDER BY timestamp, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	var result []models.StockMovement
	for rows.Next() {
		var (
			m   models.StockMovement
			typ string
			ts  int64
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &typ, &m.Quantity, &m.UnitCost, &m.Reason, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.Type = models.MovementType(typ)
		m.Timestamp = dbx.FromMillis(ts)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock movements: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, m models.StockMovement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_movements (owner_id, id, product_id, type, quantity, unit_cost, reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			product_id = excluded.product_id,
			type = excluded.type,
			quantity = excluded.quantity,
			unit_cost = excluded.unit_cost,
			reason = excluded.reason,
			timestamp = excluded.timestamp
	`, ownerID, m.ID, m.ProductID, string(m.Type), m.Quantity, m.UnitCost, m.Reason, dbx.Millis(m.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to upsert stock movement %s: %w", m.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete stock movements: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count stock movements: %w", err)
	}
	return n, nil
}
