package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/infrastructure/config"
)

// PriceCacheFactory creates price caches based on configuration
type PriceCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PriceCacheFactoryOption is a functional option for configuring the factory
type PriceCacheFactoryOption func(*PriceCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) PriceCacheFactoryOption {
	return func(f *PriceCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory
// cache when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) PriceCacheFactoryOption {
	return func(f *PriceCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPriceCacheFactory creates a new factory
func NewPriceCacheFactory(cfg config.RedisConfig, opts ...PriceCacheFactoryOption) *PriceCacheFactory {
	f := &PriceCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed price cache
func (f *PriceCacheFactory) CreateRedisCache() (PriceCache, error) {
	cache, err := NewRedisPriceCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis price cache: %w", err)
	}
	return cache, nil
}

// CreateMemoryCache creates an in-memory price cache.
// WARNING: in-memory caches do not share state across process
// instances, so identical quotes may be recomputed per instance.
func (f *PriceCacheFactory) CreateMemoryCache() PriceCache {
	return NewMemoryPriceCache()
}

// CreateCache creates a price cache based on whether Redis is
// available. It tries Redis first and falls back to in-memory when
// Redis is unreachable and fallback is allowed.
func (f *PriceCacheFactory) CreateCache() (PriceCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis price cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for price cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory price cache",
		zap.Error(err),
	)
	return f.CreateMemoryCache(), nil
}
