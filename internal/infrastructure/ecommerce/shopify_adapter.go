package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/integration"
)

// maxShopifyResponseSize limits the response body size to prevent memory exhaustion
const maxShopifyResponseSize = 10 * 1024 * 1024 // 10MB max response

// ShopifyAdapter implements the PlatformClient port against the Shopify
// Admin REST API.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client

	// integrationConfigs stores per-integration credentials
	// In production, this would be loaded from database
	integrationConfigs map[uuid.UUID]*ShopifyConfig
	mu                 sync.RWMutex // Protects integrationConfigs map access
}

// NewShopifyAdapter creates a new Shopify adapter with the given default
// configuration. A nil config means no default credentials: every
// integration must then register its own via SetIntegrationConfig.
func NewShopifyAdapter(config *ShopifyConfig) (*ShopifyAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		integrationConfigs: make(map[uuid.UUID]*ShopifyConfig),
	}, nil
}

// SetIntegrationConfig sets the configuration for a specific integration
func (a *ShopifyAdapter) SetIntegrationConfig(integrationID uuid.UUID, config *ShopifyConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrationConfigs[integrationID] = config
	return nil
}

// getIntegrationConfig retrieves the configuration for an integration
func (a *ShopifyAdapter) getIntegrationConfig(integrationID uuid.UUID) (*ShopifyConfig, error) {
	a.mu.RLock()
	config, ok := a.integrationConfigs[integrationID]
	a.mu.RUnlock()
	if ok {
		return config, nil
	}
	// Fall back to default config
	if a.config != nil {
		return a.config, nil
	}
	return nil, integration.ErrPlatformNotConfigured
}

// ---------------------------------------------------------------------------
// PlatformClient Operations
// ---------------------------------------------------------------------------

// FetchSnapshots pulls comparable entity snapshots from Shopify. Product,
// inventory and price entities are all projected from the product list
// endpoint; only the fields relevant to the entity type are exposed.
func (a *ShopifyAdapter) FetchSnapshots(ctx context.Context, integrationID uuid.UUID, entity integration.EntityType, batchSize int) ([]integration.EntitySnapshot, error) {
	config, err := a.getIntegrationConfig(integrationID)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	url := fmt.Sprintf("%s?limit=%d", config.Endpoint("products.json"), batchSize)
	respBody, err := a.doRequest(ctx, config, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopifyProductsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse response: %w", err)
	}

	snapshots := make([]integration.EntitySnapshot, 0, len(resp.Products))
	for _, product := range resp.Products {
		snapshots = append(snapshots, snapshotFromProduct(&product, entity))
	}
	return snapshots, nil
}

// PushUpdate writes resolved field values back to Shopify. The product is
// fetched first so variant-level fields land on the correct variant.
func (a *ShopifyAdapter) PushUpdate(ctx context.Context, integrationID uuid.UUID, entity integration.EntityType, entityID string, fields map[string]any) error {
	config, err := a.getIntegrationConfig(integrationID)
	if err != nil {
		return err
	}

	productID, err := strconv.ParseInt(entityID, 10, 64)
	if err != nil {
		return fmt.Errorf("shopify: invalid product ID %q: %w", entityID, err)
	}

	update := ShopifyProductUpdate{Product: ShopifyProductUpdateFields{ID: productID}}
	if name, ok := fields["name"].(string); ok {
		update.Product.Title = name
	}

	variantUpdate := buildVariantUpdate(fields)
	if variantUpdate != nil {
		product, err := a.getProduct(ctx, config, productID)
		if err != nil {
			return err
		}
		if len(product.Variants) == 0 {
			return fmt.Errorf("%w: product %d has no variants", integration.ErrPlatformRequestFailed, productID)
		}
		variantUpdate.ID = product.Variants[0].ID
		update.Product.Variants = []ShopifyVariantUpdate{*variantUpdate}
	}

	url := config.Endpoint(fmt.Sprintf("products/%d.json", productID))
	_, err = a.doRequest(ctx, config, http.MethodPut, url, update)
	return err
}

// getProduct fetches one product with its variants
func (a *ShopifyAdapter) getProduct(ctx context.Context, config *ShopifyConfig, productID int64) (*ShopifyProduct, error) {
	url := config.Endpoint(fmt.Sprintf("products/%d.json", productID))
	respBody, err := a.doRequest(ctx, config, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var resp ShopifyProductResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse response: %w", err)
	}
	return &resp.Product, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request to the Shopify Admin API
func (a *ShopifyAdapter) doRequest(ctx context.Context, config *ShopifyConfig, method, url string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("shopify: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ShopifyErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Errors != nil {
			return nil, fmt.Errorf("%w: HTTP %d: %v", integration.ErrPlatformRequestFailed, resp.StatusCode, errResp.Errors)
		}
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// snapshotFromProduct projects a Shopify product into a comparable snapshot
func snapshotFromProduct(product *ShopifyProduct, entity integration.EntityType) integration.EntitySnapshot {
	snapshot := integration.EntitySnapshot{
		EntityID:  strconv.FormatInt(product.ID, 10),
		Fields:    make(map[string]any),
		UpdatedAt: product.UpdatedAt,
	}

	var totalQuantity int64
	for _, variant := range product.Variants {
		totalQuantity += variant.InventoryQuantity
	}

	switch entity {
	case integration.EntityTypeInventory:
		snapshot.Fields["quantity"] = totalQuantity
	case integration.EntityTypePrice:
		if len(product.Variants) > 0 {
			snapshot.Fields["price"] = product.Variants[0].Price
		}
	default:
		snapshot.Fields["name"] = product.Title
		snapshot.Fields["quantity"] = totalQuantity
		if len(product.Variants) > 0 {
			snapshot.Fields["price"] = product.Variants[0].Price
		}
	}

	return snapshot
}

// buildVariantUpdate extracts variant-level changes from resolved fields.
// Returns nil when no variant field changed.
func buildVariantUpdate(fields map[string]any) *ShopifyVariantUpdate {
	update := &ShopifyVariantUpdate{}
	changed := false

	if price, ok := fields["price"]; ok {
		update.Price = fmt.Sprintf("%v", price)
		changed = true
	}
	if quantity, ok := fields["quantity"]; ok {
		if qty, err := strconv.ParseInt(fmt.Sprintf("%v", quantity), 10, 64); err == nil {
			update.InventoryQuantity = &qty
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return update
}

// Ensure ShopifyAdapter implements PlatformClient interface
var _ integration.PlatformClient = (*ShopifyAdapter)(nil)
