package collections

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/localstore/sqlitetest"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertWithItemsAndList(t *testing.T) {
	db := sqlitetest.Open(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	at := time.UnixMilli(1709287200000).UTC()
	sp := decimal.RequireFromString("2.99")

	c := models.Collection{
		ID: "c1", Name: "Summer", Status: models.CollectionShared,
		CustomerIDs:    []string{"cu1", "cu2"},
		CustomerTokens: map[string]string{"cu1": "t1"},
		ChatEnabled:    true,
		Template:       "grid",
		Items: []models.CollectionItem{
			{ProductID: "p2", DisplayOrder: 1},
			{ProductID: "p1", DisplayOrder: 0, IsFeatured: true, SpecialPrice: &sp},
		},
		CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(t, r.Upsert(ctx, "u1", c))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, models.CollectionShared, got.Status)
	assert.Equal(t, []string{"cu1", "cu2"}, got.CustomerIDs)
	assert.Equal(t, map[string]string{"cu1": "t1"}, got.CustomerTokens)
	assert.True(t, got.ChatEnabled)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "p1", got.Items[0].ProductID)
	assert.Equal(t, "c1", got.Items[0].CollectionID)
	require.NotNil(t, got.Items[0].SpecialPrice)
	assert.True(t, got.Items[0].SpecialPrice.Equal(sp))
	assert.Nil(t, got.Items[1].SpecialPrice)

	var raw string
	require.NoError(t, db.QueryRow(`SELECT customer_ids FROM collections WHERE id = 'c1'`).Scan(&raw))
	assert.Equal(t, "cu1,cu2", raw)
}

func TestUpsert_ReplacesItems(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()
	c := models.Collection{ID: "c1", Name: "X", Status: models.CollectionDraft,
		Items: []models.CollectionItem{{ProductID: "p1"}, {ProductID: "p2"}}}
	require.NoError(t, r.Upsert(ctx, "u1", c))

	c.Items = []models.CollectionItem{{ProductID: "p3"}}
	require.NoError(t, r.Upsert(ctx, "u1", c))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, "p3", list[0].Items[0].ProductID)
}

func TestUpsertItem(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, "u1", models.Collection{ID: "c1", Name: "X", Status: models.CollectionDraft}))
	require.NoError(t, r.UpsertItem(ctx, "u1", models.CollectionItem{CollectionID: "c1", ProductID: "p1", Notes: "a"}))
	require.NoError(t, r.UpsertItem(ctx, "u1", models.CollectionItem{CollectionID: "c1", ProductID: "p1", Notes: "b"}))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, "b", list[0].Items[0].Notes)
}

func TestDeleteByOwner(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, "u1", models.Collection{ID: "c1", Name: "X", Items: []models.CollectionItem{{ProductID: "p1"}}}))
	require.NoError(t, r.DeleteByOwner(ctx, "u1"))

	n, err := r.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = r.CountItems(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJoinCustomerIDs(t *testing.T) {
	assert.Equal(t, "", JoinCustomerIDs(nil))
	assert.Equal(t, []string{"a", "b"}, splitCustomerIDs(JoinCustomerIDs([]string{"a", "b"})))
	assert.Nil(t, splitCustomerIDs(""))
}
