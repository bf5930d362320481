package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// PriceContext
// ---------------------------------------------------------------------------

// PriceContext carries the inputs of one price calculation. It is
// ephemeral and never persisted.
type PriceContext struct {
	TenantID         uuid.UUID
	ProductID        uuid.UUID
	CategoryID       *uuid.UUID
	CustomerID       *uuid.UUID
	CustomerTierID   *uuid.UUID
	Quantity         decimal.Decimal
	Date             time.Time
	BasePrice        decimal.Decimal
	UnitCost         *decimal.Decimal
	MinMarginPercent decimal.Decimal
	Inventory        *InventorySnapshot
	// Attributes are free-form context fields matched by prefixed custom
	// condition keys.
	Attributes map[string]string
}

// Validate checks that the context describes a calculable request
func (p *PriceContext) Validate() error {
	if p.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product id is required", ErrInvalidContext)
	}
	if !p.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidContext)
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price cannot be negative", ErrInvalidContext)
	}
	if p.MinMarginPercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: minimum margin must be below 100%%", ErrInvalidContext)
	}
	return nil
}

// EffectiveDate returns the requested date, defaulting to now when unset
func (p *PriceContext) EffectiveDate() time.Time {
	if p.Date.IsZero() {
		return time.Now()
	}
	return p.Date
}

// OrderValue is the pre-discount value of the request
func (p *PriceContext) OrderValue() decimal.Decimal {
	return p.BasePrice.Mul(p.Quantity)
}

// CacheKey derives the deterministic cache key for this context.
// Unset customer and date collapse to "none" and "today" so equivalent
// requests share an entry.
func (p *PriceContext) CacheKey() string {
	customer := "none"
	if p.CustomerID != nil {
		customer = p.CustomerID.String()
	}
	date := "today"
	if !p.Date.IsZero() {
		date = p.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("price:%s:%s:%s:%s:%s",
		p.TenantID, p.ProductID, customer, p.Quantity.String(), date)
}

// ---------------------------------------------------------------------------
// PriceCalculationResult
// ---------------------------------------------------------------------------

// AppliedRule records one rule's contribution to a calculation
type AppliedRule struct {
	RuleID         uuid.UUID       `json:"rule_id"`
	Name           string          `json:"name"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// PriceCalculationResult is the immutable outcome of one calculation.
// Results are cached verbatim.
type PriceCalculationResult struct {
	BasePrice       decimal.Decimal `json:"base_price"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	AppliedRules    []AppliedRule   `json:"applied_rules"`
	CalculatedAt    time.Time       `json:"calculated_at"`
}
