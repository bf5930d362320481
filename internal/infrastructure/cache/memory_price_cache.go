package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/pricing"
)

// defaultJanitorInterval is how often expired entries are swept
const defaultJanitorInterval = time.Minute

type memoryPriceEntry struct {
	result    *pricing.PriceCalculationResult
	expiresAt time.Time
}

func (e *memoryPriceEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryPriceCache is an in-process PriceCache. Entries are evicted
// lazily on read and periodically by a janitor goroutine. Suitable for
// single-instance deployments and testing; instances do not share
// state.
type MemoryPriceCache struct {
	mu      sync.RWMutex
	entries map[string]memoryPriceEntry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryPriceCache creates a new in-memory price cache and starts
// its janitor.
func NewMemoryPriceCache() *MemoryPriceCache {
	c := &MemoryPriceCache{
		entries: make(map[string]memoryPriceEntry),
		stop:    make(chan struct{}),
	}
	go c.janitor(defaultJanitorInterval)
	return c
}

// Get returns the cached result for the key. Expired entries are
// evicted and reported as misses.
func (c *MemoryPriceCache) Get(ctx context.Context, key string) (*pricing.PriceCalculationResult, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if current, ok := c.entries[key]; ok && current.expired(time.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.result, true, nil
}

// Set stores the result under the key for the TTL
func (c *MemoryPriceCache) Set(ctx context.Context, key string, result *pricing.PriceCalculationResult, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryPriceEntry{
		result:    result,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// InvalidateProduct drops every cached price for one product
func (c *MemoryPriceCache) InvalidateProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	c.dropMatching(productPattern(tenantID, productID))
	return nil
}

// InvalidateCustomer drops every cached price for one customer
func (c *MemoryPriceCache) InvalidateCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	c.dropMatching(customerPattern(tenantID, customerID))
	return nil
}

// Clear drops every cached price for the tenant
func (c *MemoryPriceCache) Clear(ctx context.Context, tenantID uuid.UUID) error {
	c.dropMatching(tenantPattern(tenantID))
	return nil
}

// Close stops the janitor and drops all entries
func (c *MemoryPriceCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.mu.Lock()
	c.entries = make(map[string]memoryPriceEntry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries (for testing/monitoring)
func (c *MemoryPriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryPriceCache) dropMatching(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if matched, err := path.Match(pattern, key); err == nil && matched {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryPriceCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if entry.expired(now) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

var _ PriceCache = (*MemoryPriceCache)(nil)
