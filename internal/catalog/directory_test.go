package catalog

import (
	"context"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func TestMongoDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	defer func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}()

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)
	db, err := repository.ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	_, err = db.Collection("products").InsertOne(ctx, domain.Product{
		ID:        "p1",
		Name:      "Mug",
		Price:     12.5,
		IsActive:  true,
		Inventory: domain.StockInfo{Quantity: 8, Reserved: 3},
	})
	require.NoError(t, err)

	dir := NewMongoDirectory(db)

	p, err := dir.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.Price)
	assert.Equal(t, 5, p.Inventory.Available())

	_, err = dir.GetProduct(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	ok, err := dir.ProductExists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.ProductExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
