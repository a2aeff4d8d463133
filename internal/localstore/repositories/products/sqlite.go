package products

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Product, error)
	Upsert(ctx context.Context, ownerID string, p models.Product) error
	UpdateImageURLs(ctx context.Context, ownerID, id, photoURL, thumbnailURL string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `id, name, description, sku, purchase_price, sale_price, stock_quantity, minimum_stock,
	category_id, supplier, photo_url, thumbnail_url, is_active, created_at, updated_at`

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM products WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var result []models.Product
	for rows.Next() {
		var (
			p                models.Product
			active           int
			created, updated int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.PurchasePrice, &p.SalePrice,
			&p.StockQuantity, &p.MinimumStock, &p.CategoryID, &p.Supplier, &p.PhotoURL, &p.ThumbnailURL,
			&active, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.IsActive = active == 1
		p.CreatedAt = dbx.FromMillis(created)
		p.UpdatedAt = dbx.FromMillis(updated)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, p models.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (owner_id, `+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			sku = excluded.sku,
			purchase_price = excluded.purchase_price,
			sale_price = excluded.sale_price,
			stock_quantity = excluded.stock_quantity,
			minimum_stock = excluded.minimum_stock,
			category_id = excluded.category_id,
			supplier = excluded.supplier,
			photo_url = excluded.photo_url,
			thumbnail_url = excluded.thumbnail_url,
			is_active = excluded.is_active,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, ownerID, p.ID, p.Name, p.Description, p.SKU, p.PurchasePrice, p.SalePrice,
		p.StockQuantity, p.MinimumStock, p.CategoryID, p.Supplier, p.PhotoURL, p.ThumbnailURL,
		dbx.BoolInt(p.IsActive), dbx.Millis(p.CreatedAt), dbx.Millis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

// UpdateImageURLs replaces both image URLs of one product.
func (r *SQLiteRepository) UpdateImageURLs(ctx context.Context, ownerID, id, photoURL, thumbnailURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET photo_url = ?, thumbnail_url = ? WHERE owner_id = ? AND id = ?`,
		photoURL, thumbnailURL, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to update product images %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
