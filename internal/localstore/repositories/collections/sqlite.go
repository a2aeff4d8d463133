package collections

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bizsync/internal/dbx"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Collection, error)
	Upsert(ctx context.Context, ownerID string, c models.Collection) error
	UpsertItem(ctx context.Context, ownerID string, it models.CollectionItem) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	Count(ctx context.Context, ownerID string) (int, error)
	CountItems(ctx context.Context, ownerID string) (int, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// JoinCustomerIDs is the local serialized form of a customer id list.
func JoinCustomerIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func splitCustomerIDs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ListByOwner returns collections with their items ordered by display order.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Collection, error) {
	result, err := r.listCollections(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items, err := r.listItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Items = items[result[i].ID]
	}
	return result, nil
}

func (r *SQLiteRepository) listCollections(ctx context.Context, ownerID string) ([]models.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, status, customer_ids, customer_tokens, chat_enabled, template,
			created_at, updated_at
		FROM collections WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var result []models.Collection
	for rows.Next() {
		var (
			c                models.Collection
			status, ids      string
			tokens           string
			chat             int
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &status, &ids, &tokens, &chat, &c.Template,
			&created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		c.Status, _ = models.ParseCollectionStatus(status)
		c.CustomerIDs = splitCustomerIDs(ids)
		c.CustomerTokens = map[string]string{}
		if tokens != "" {
			if err := json.Unmarshal([]byte(tokens), &c.CustomerTokens); err != nil {
				return nil, fmt.Errorf("failed to decode customer tokens of %s: %w", c.ID, err)
			}
		}
		c.ChatEnabled = chat == 1
		c.CreatedAt = dbx.FromMillis(created)
		c.UpdatedAt = dbx.FromMillis(updated)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) listItems(ctx context.Context, ownerID string) (map[string][]models.CollectionItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT collection_id, product_id, display_order, notes, is_featured, special_price
		FROM collection_items WHERE owner_id = ? ORDER BY collection_id, display_order, product_id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection items: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.CollectionItem)
	for rows.Next() {
		var (
			it       models.CollectionItem
			featured int
			special  decimal.NullDecimal
		)
		if err := rows.Scan(&it.CollectionID, &it.ProductID, &it.DisplayOrder, &it.Notes, &featured, &special); err != nil {
			return nil, fmt.Errorf("failed to scan collection item: %w", err)
		}
		it.IsFeatured = featured == 1
		if special.Valid {
			d := special.Decimal
			it.SpecialPrice = &d
		}
		result[it.CollectionID] = append(result[it.CollectionID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection items: %w", err)
	}
	return result, nil
}

// Upsert writes the collection row and replaces all of its items.
func (r *SQLiteRepository) Upsert(ctx context.Context, ownerID string, c models.Collection) error {
	tokens := c.CustomerTokens
	if tokens == nil {
		tokens = map[string]string{}
	}
	rawTokens, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode customer tokens of %s: %w", c.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO collections (owner_id, id, name, description, status, customer_ids, customer_tokens,
			chat_enabled, template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			customer_ids = excluded.customer_ids,
			customer_tokens = excluded.customer_tokens,
			chat_enabled = excluded.chat_enabled,
			template = excluded.template,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, ownerID, c.ID, c.Name, c.Description, string(c.Status), JoinCustomerIDs(c.CustomerIDs), string(rawTokens),
		dbx.BoolInt(c.ChatEnabled), c.Template, dbx.Millis(c.CreatedAt), dbx.Millis(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert collection %s: %w", c.ID, err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM collection_items WHERE owner_id = ? AND collection_id = ?`, ownerID, c.ID); err != nil {
		return fmt.Errorf("failed to clear items of collection %s: %w", c.ID, err)
	}
	for _, it := range c.Items {
		it.CollectionID = c.ID
		if err := r.UpsertItem(ctx, ownerID, it); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) UpsertItem(ctx context.Context, ownerID string, it models.CollectionItem) error {
	var special decimal.NullDecimal
	if it.SpecialPrice != nil {
		special = decimal.NewNullDecimal(*it.SpecialPrice)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collection_items (owner_id, collection_id, product_id, display_order, notes, is_featured, special_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, collection_id, product_id) DO UPDATE SET
			display_order = excluded.display_order,
			notes = excluded.notes,
			is_featured = excluded.is_featured,
			special_price = excluded.special_price
	`, ownerID, it.CollectionID, it.ProductID, it.DisplayOrder, it.Notes, dbx.BoolInt(it.IsFeatured), special)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s of collection %s: %w", it.ProductID, it.CollectionID, err)
	}
	return nil
}

// DeleteByOwner removes items before collections.
func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collection_items WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete collection items: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete collections: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountItems(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collection_items WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count collection items: %w", err)
	}
	return n, nil
}
