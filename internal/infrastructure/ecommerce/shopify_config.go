package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ShopifyConfig holds configuration for the Shopify Admin API integration
type ShopifyConfig struct {
	// ShopDomain is the myshopify.com subdomain, e.g. "acme-wholesale"
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// WebhookSecret signs incoming webhook payloads
	WebhookSecret string
	// APIVersion is the Admin API version, e.g. "2024-01"
	APIVersion string
	// APIBaseURL overrides the shop URL, used for testing
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// ShopifyDefaultAPIVersion is the Admin API version used when none is configured
const ShopifyDefaultAPIVersion = "2024-01"

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShopDomain  = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// NewShopifyConfig creates a new Shopify configuration with defaults
func NewShopifyConfig(shopDomain, accessToken string) *ShopifyConfig {
	return &ShopifyConfig{
		ShopDomain:     shopDomain,
		AccessToken:    accessToken,
		APIVersion:     ShopifyDefaultAPIVersion,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Shopify configuration
func (c *ShopifyConfig) Validate() error {
	if c.ShopDomain == "" && c.APIBaseURL == "" {
		return ErrShopifyConfigMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// BaseURL returns the Admin API root for this shop
func (c *ShopifyConfig) BaseURL() string {
	if c.APIBaseURL != "" {
		return strings.TrimSuffix(c.APIBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.myshopify.com", c.ShopDomain)
}

// Endpoint builds a versioned Admin API path
func (c *ShopifyConfig) Endpoint(resource string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", c.BaseURL(), c.APIVersion, resource)
}

// VerifyWebhook checks an X-Shopify-Hmac-Sha256 header against the raw
// request body. Shopify signs webhooks with HMAC-SHA256 over the body,
// base64-encoded.
func (c *ShopifyConfig) VerifyWebhook(body []byte, signature string) bool {
	if c.WebhookSecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(c.WebhookSecret))
	h.Write(body)
	expected := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
