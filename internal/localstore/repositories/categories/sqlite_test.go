package categories

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/bizsync/internal/localstore/sqlitetest"
	"github.com/dmitrijs2005/bizsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertListDelete(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.Open(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, models.CustomCategory{
		ID: "k2", OwnerID: "u1", Name: "Snacks", SortOrder: 2, IsActive: true,
		CreatedAt: "2024-03-01T10:00:00.000Z", UpdatedAt: "2024-03-01T10:00:00.000Z",
	}))
	require.NoError(t, r.Upsert(ctx, models.CustomCategory{
		ID: "k1", OwnerID: "u1", Name: "Drinks", SortOrder: 1, IsActive: false,
		CreatedAt: "2024-03-01T09:00:00.000Z", UpdatedAt: "2024-03-01T09:30:00.000Z",
	}))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Drinks", list[0].Name)
	assert.False(t, list[0].IsActive)
	assert.Equal(t, "2024-03-01T09:30:00.000Z", list[0].UpdatedAt)
	assert.Equal(t, "u1", list[0].OwnerID)

	require.NoError(t, r.DeleteByOwner(ctx, "u1"))
	n, err := r.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
