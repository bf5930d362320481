package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisPriceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisPriceCacheWithClient(client)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestRedisPriceCache_SetGetRoundTrip(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	key := priceKey(uuid.New(), uuid.New(), uuid.New(), 10)
	require.NoError(t, cache.Set(ctx, key, sampleResult(85), 5*time.Minute))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.BasePrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.FinalPrice.Equal(decimal.NewFromInt(85)))
}

func TestRedisPriceCache_MissingKeyIsMiss(t *testing.T) {
	cache, _ := newTestRedisCache(t)

	_, ok, err := cache.Get(context.Background(), "price:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPriceCache_ExpiredKeyIsMiss(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	key := priceKey(uuid.New(), uuid.New(), uuid.New(), 1)
	require.NoError(t, cache.Set(ctx, key, sampleResult(90), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPriceCache_RejectsNonPositiveTTL(t *testing.T) {
	cache, _ := newTestRedisCache(t)

	err := cache.Set(context.Background(), "price:k", sampleResult(90), -time.Second)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestRedisPriceCache_CorruptEntryIsMiss(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	key := priceKey(uuid.New(), uuid.New(), uuid.New(), 1)
	require.NoError(t, mr.Set(key, "not json"))

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(key))
}

func TestRedisPriceCache_InvalidateProduct(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	tenantID := uuid.New()
	target := uuid.New()
	other := uuid.New()
	customerID := uuid.New()

	targetKey := priceKey(tenantID, target, customerID, 1)
	otherKey := priceKey(tenantID, other, customerID, 1)
	require.NoError(t, cache.Set(ctx, targetKey, sampleResult(90), time.Minute))
	require.NoError(t, cache.Set(ctx, otherKey, sampleResult(85), time.Minute))

	require.NoError(t, cache.InvalidateProduct(ctx, tenantID, target))

	assert.False(t, mr.Exists(targetKey))
	assert.True(t, mr.Exists(otherKey))
}

func TestRedisPriceCache_InvalidateCustomer(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	tenantID := uuid.New()
	productID := uuid.New()
	target := uuid.New()
	other := uuid.New()

	targetKey := priceKey(tenantID, productID, target, 1)
	otherKey := priceKey(tenantID, productID, other, 1)
	require.NoError(t, cache.Set(ctx, targetKey, sampleResult(90), time.Minute))
	require.NoError(t, cache.Set(ctx, otherKey, sampleResult(85), time.Minute))

	require.NoError(t, cache.InvalidateCustomer(ctx, tenantID, target))

	assert.False(t, mr.Exists(targetKey))
	assert.True(t, mr.Exists(otherKey))
}

func TestRedisPriceCache_ClearIsTenantScoped(t *testing.T) {
	cache, mr := newTestRedisCache(t)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()
	productID := uuid.New()
	customerID := uuid.New()

	keyA := priceKey(tenantA, productID, customerID, 1)
	keyB := priceKey(tenantB, productID, customerID, 1)
	require.NoError(t, cache.Set(ctx, keyA, sampleResult(90), time.Minute))
	require.NoError(t, cache.Set(ctx, keyB, sampleResult(85), time.Minute))

	require.NoError(t, cache.Clear(ctx, tenantA))

	assert.False(t, mr.Exists(keyA))
	assert.True(t, mr.Exists(keyB))
}
