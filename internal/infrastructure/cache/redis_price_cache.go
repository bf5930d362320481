package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/commercehub/backend/internal/domain/pricing"
)

// RedisPriceCache is a Redis-backed PriceCache for distributed
// deployments where multiple instances must share cached prices.
// Results are stored as JSON; expiry is delegated to Redis TTLs.
type RedisPriceCache struct {
	client *redis.Client
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisPriceCache creates a new Redis-backed price cache, verifying
// connectivity before returning.
func NewRedisPriceCache(cfg RedisConfig) (*RedisPriceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPriceCache{client: client}, nil
}

// NewRedisPriceCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across
// components.
func NewRedisPriceCacheWithClient(client *redis.Client) *RedisPriceCache {
	return &RedisPriceCache{client: client}
}

// Get returns the cached result for the key, reporting presence
func (c *RedisPriceCache) Get(ctx context.Context, key string) (*pricing.PriceCalculationResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached price: %w", err)
	}

	var result pricing.PriceCalculationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// Corrupt entry; drop it and report a miss.
		c.client.Del(ctx, key)
		return nil, false, nil
	}
	return &result, true, nil
}

// Set stores the result under the key for the TTL
func (c *RedisPriceCache) Set(ctx context.Context, key string, result *pricing.PriceCalculationResult, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding price result: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("writing cached price: %w", err)
	}
	return nil
}

// InvalidateProduct drops every cached price for one product
func (c *RedisPriceCache) InvalidateProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	return c.deleteMatching(ctx, productPattern(tenantID, productID))
}

// InvalidateCustomer drops every cached price for one customer
func (c *RedisPriceCache) InvalidateCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	return c.deleteMatching(ctx, customerPattern(tenantID, customerID))
}

// Clear drops every cached price for the tenant
func (c *RedisPriceCache) Clear(ctx context.Context, tenantID uuid.UUID) error {
	return c.deleteMatching(ctx, tenantPattern(tenantID))
}

// deleteMatching removes keys matching the pattern using SCAN, so large
// keyspaces never block Redis the way KEYS would.
func (c *RedisPriceCache) deleteMatching(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting cached price %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cached prices: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisPriceCache) Close() error {
	return c.client.Close()
}

var _ PriceCache = (*RedisPriceCache)(nil)
