// Package invoices persists invoices in the local cache. Invoice lines are
// kept as a JSON array in the items column.
package invoices

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Invoice, error)
	Upsert(ctx context.Context, ownerID string, inv models.Invoice) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type itemRow struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func encodeItems(items []models.InvoiceItem) (string, error) {
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, itemRow(it))
	}
	b, err := json.Marshal(rows)
	return string(b), err
}

func decodeItems(s string) ([]models.InvoiceItem, error) {
	var rows []itemRow
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, err
	}
	items := make([]models.InvoiceItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, models.InvoiceItem(r))
	}
	return items, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, number, sale_id, customer_id, customer_name, items, subtotal, tax, total, date,
			template, notes, created_at, updated_at
		FROM invoices WHERE owner_id = ? ORDER BY date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var result []models.Invoice
	for rows.Next() {
		var (
			inv                    models.Invoice
			saleID, customerID     sql.NullString
			items, template        string
			date, created, updated int64
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &saleID, &customerID, &inv.CustomerName, &items,
			&inv.Subtotal, &inv.Tax, &inv.Total, &date, &template, &inv.Notes, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		if inv.Items, err = decodeItems(items); err != nil {
			return nil, fmt.Errorf("failed to decode items of invoice %s: %w", inv.ID, err)
		}
		inv.SaleID = dbx.StringPtr(saleID)
		inv.CustomerID = dbx.StringPtr(customerID)
		inv.Template, _ = models.ParseInvoiceTemplate(template)
		inv.Date = dbx.FromMillis(date)
		inv.CreatedAt = dbx.FromMillis(created)
		inv.UpdatedAt = dbx.FromMillis(updated)
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, inv models.Invoice) error {
	items, err := encodeItems(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items of invoice %s: %w", inv.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoices (owner_id, id, number, sale_id, customer_id, customer_name, items, subtotal,
			tax, total, date, template, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			number = excluded.number,
			sale_id = excluded.sale_id,
			customer_id = excluded.customer_id,
			customer_name = excluded.customer_name,
			items = excluded.items,
			subtotal = excluded.subtotal,
			tax = excluded.tax,
			total = excluded.total,
			date = excluded.date,
			template = excluded.template,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, ownerID, inv.ID, inv.Number, dbx.NullString(inv.SaleID), dbx.NullString(inv.CustomerID), inv.CustomerName,
		items, inv.Subtotal, inv.Tax, inv.Total, dbx.Millis(inv.Date), string(inv.Template), inv.Notes,
		dbx.Millis(inv.CreatedAt), dbx.Millis(inv.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert invoice %s: %w", inv.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete invoices: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}
