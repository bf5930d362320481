package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/pricing"
)

var (
	// ErrInvalidTTL is returned when a cache write carries a non-positive TTL
	ErrInvalidTTL = errors.New("cache TTL must be positive")
)

// PriceCache stores price calculation results under their deterministic
// context keys. Expired entries are absent: a Get after the TTL behaves
// exactly like a miss. Implementations must be safe for concurrent use.
type PriceCache interface {
	// Get returns the cached result for the key, reporting presence
	Get(ctx context.Context, key string) (*pricing.PriceCalculationResult, bool, error)
	// Set stores the result under the key for the TTL
	Set(ctx context.Context, key string, result *pricing.PriceCalculationResult, ttl time.Duration) error
	// InvalidateProduct drops every cached price for one product
	InvalidateProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	// InvalidateCustomer drops every cached price for one customer
	InvalidateCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error
	// Clear drops every cached price for the tenant
	Clear(ctx context.Context, tenantID uuid.UUID) error
	// Close releases the cache's resources
	Close() error
}

// productPattern matches every key for one product within a tenant
func productPattern(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("price:%s:%s:*", tenantID, productID)
}

// customerPattern matches every key carrying the customer segment
func customerPattern(tenantID, customerID uuid.UUID) string {
	return fmt.Sprintf("price:%s:*:%s:*", tenantID, customerID)
}

// tenantPattern matches every price key for the tenant
func tenantPattern(tenantID uuid.UUID) string {
	return fmt.Sprintf("price:%s:*", tenantID)
}
