package ecommerce

import "time"

// ---------------------------------------------------------------------------
// Shopify Admin API Payloads
// ---------------------------------------------------------------------------

// ShopifyVariant is one sellable variant of a product
type ShopifyVariant struct {
	ID                int64      `json:"id"`
	ProductID         int64      `json:"product_id"`
	SKU               string     `json:"sku"`
	Price             string     `json:"price"`
	InventoryQuantity int64      `json:"inventory_quantity"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// ShopifyProduct is a product as returned by the Admin API
type ShopifyProduct struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Status    string           `json:"status"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	Variants  []ShopifyVariant `json:"variants"`
}

// ShopifyProductsResponse wraps the product list endpoint
type ShopifyProductsResponse struct {
	Products []ShopifyProduct `json:"products"`
}

// ShopifyProductResponse wraps single-product endpoints
type ShopifyProductResponse struct {
	Product ShopifyProduct `json:"product"`
}

// ShopifyProductUpdate is the request body for product updates
type ShopifyProductUpdate struct {
	Product ShopifyProductUpdateFields `json:"product"`
}

// ShopifyProductUpdateFields carries only the fields being changed
type ShopifyProductUpdateFields struct {
	ID       int64                  `json:"id"`
	Title    string                 `json:"title,omitempty"`
	Variants []ShopifyVariantUpdate `json:"variants,omitempty"`
}

// ShopifyVariantUpdate carries variant-level changes
type ShopifyVariantUpdate struct {
	ID                int64  `json:"id"`
	Price             string `json:"price,omitempty"`
	InventoryQuantity *int64 `json:"inventory_quantity,omitempty"`
}

// ShopifyErrorResponse is the error envelope the Admin API returns
type ShopifyErrorResponse struct {
	Errors any `json:"errors"`
}
