package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client), mr
}

func sampleCart(sessionID string) *domain.Cart {
	return &domain.Cart{
		ID:        "cart-1",
		SessionID: sessionID,
		Status:    domain.CartStatusActive,
		Items: []domain.CartItem{
			{ID: "i1", ProductID: "p1", Quantity: 2, UnitPrice: 10},
			{ID: "i2", ProductID: "p2", VariantID: "red", Quantity: 1, UnitPrice: 5},
		},
		Totals:    domain.Totals{Subtotal: 25, Tax: 2.5, Total: 27.5},
		UpdatedAt: time.Now().UTC(),
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)

	cartJSON, err := json.Marshal(sampleCart("s1"))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cartKey("s1"), string(cartJSON)))

	result, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", result.SessionID)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, "red", result.Items[1].VariantID)
	assert.Equal(t, 27.5, result.Totals.Total)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cartKey("s1"), `{"id":`))

	_, err := cache.Get(context.Background(), "s1")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), "s1", 0, sampleCart("s1")))

	stored, err := mr.Get(cartKey("s1"))
	require.NoError(t, err)
	assert.Contains(t, stored, `"sessionId":"s1"`)

	ttl := mr.TTL(cartKey("s1"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute, "TTL should be at least base TTL")
	assert.LessOrEqual(t, ttl, 20*time.Minute, "TTL should be base + max jitter")
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cartKey("s1"), "{}"))

	require.NoError(t, cache.Delete(context.Background(), "s1"))
	assert.False(t, mr.Exists(cartKey("s1")))

	// Deleting non-existent key should not error
	assert.NoError(t, cache.Delete(context.Background(), "s1"))
}

func TestDelete_BumpsGeneration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Delete(ctx, "s1"))
	next, err := cache.Generation(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	assert.Greater(t, mr.TTL(generationKey("s1")), time.Duration(0))
}

func TestSet_StaleGeneration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, cache.Delete(ctx, "s1"))

	require.NoError(t, cache.Set(ctx, "s1", gen, sampleCart("s1")))
	assert.False(t, mr.Exists(cartKey("s1")), "set with an outdated generation must not store")

	current, err := cache.Generation(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, "s1", current, sampleCart("s1")))
	assert.True(t, mr.Exists(cartKey("s1")))
}

func TestNop_AlwaysMisses(t *testing.T) {
	var c CartCache = Nop{}
	require.NoError(t, c.Set(context.Background(), "s1", 0, sampleCart("s1")))

	_, err := c.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
