package products

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/dmitrijs2005/bizsync/internal/localstore/sqlitetest"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func product(id, sku string) models.Product {
	return models.Product{
		ID:            id,
		Name:          "Product " + id,
		SKU:           sku,
		PurchasePrice: decimal.RequireFromString("1.25"),
		SalePrice:     decimal.RequireFromString("3.50"),
		StockQuantity: 10,
		MinimumStock:  5,
		PhotoURL:      "/data/" + id + ".jpg",
		IsActive:      true,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestUpsert_InsertAndReplace(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, "u1", product("p1", "A")))
	p := product("p1", "A")
	p.Name = "Renamed"
	p.IsActive = false
	require.NoError(t, r.Upsert(ctx, "u1", p))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)
	assert.False(t, list[0].IsActive)
	assert.True(t, list[0].SalePrice.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, at, list[0].CreatedAt)
}

func TestUpsert_DuplicateSKURejected(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, "u1", product("p1", "A")))
	require.Error(t, r.Upsert(ctx, "u1", product("p2", "A")))
	require.NoError(t, r.Upsert(ctx, "u2", product("p2", "A")), "sku is unique per owner only")
	require.NoError(t, r.Upsert(ctx, "u1", product("p3", "")))
	require.NoError(t, r.Upsert(ctx, "u1", product("p4", "")))
}

func TestListByOwner_Scoped(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, "u1", product("p2", "")))
	require.NoError(t, r.Upsert(ctx, "u1", product("p1", "")))
	require.NoError(t, r.Upsert(ctx, "u2", product("p9", "")))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)

	n, err := r.Count(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateImageURLs(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, "u1", product("p1", "")))

	require.NoError(t, r.UpdateImageURLs(ctx, "u1", "p1", "https://cdn/p.jpg", "https://cdn/t.jpg"))
	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/p.jpg", list[0].PhotoURL)
	assert.Equal(t, "https://cdn/t.jpg", list[0].ThumbnailURL)

	err = r.UpdateImageURLs(ctx, "u1", "nope", "a", "b")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteByOwner(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, "u1", product("p1", "")))
	require.NoError(t, r.Upsert(ctx, "u2", product("p1", "")))

	require.NoError(t, r.DeleteByOwner(ctx, "u1"))
	n, err := r.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = r.Count(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
