package pricing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Pricing Errors
// ---------------------------------------------------------------------------

var (
	// ErrRuleNotFound is returned when a pricing rule does not exist
	ErrRuleNotFound = errors.New("pricing: rule not found")
	// ErrInvalidRule is returned when a rule fails validation
	ErrInvalidRule = errors.New("pricing: invalid rule")
	// ErrInvalidDiscountType is returned for unknown discount types
	ErrInvalidDiscountType = errors.New("pricing: invalid discount type")
	// ErrInvalidContext is returned when a price context is not calculable
	ErrInvalidContext = errors.New("pricing: invalid price context")
	// ErrRuleFetchFailed is returned when the rule storage cannot be read
	ErrRuleFetchFailed = errors.New("pricing: rule fetch failed")
)

// ---------------------------------------------------------------------------
// RuleType / DiscountType
// ---------------------------------------------------------------------------

// RuleType classifies how a pricing rule contributes a discount
type RuleType string

const (
	// RuleTypeFlat applies the rule's own discount unconditionally
	RuleTypeFlat RuleType = "flat"
	// RuleTypeQuantity applies the discount of the matching quantity break
	RuleTypeQuantity RuleType = "quantity"
)

// IsValid returns true if the rule type is one this engine knows how to apply.
// Unknown tags are tolerated at storage level for forward compatibility but
// are skipped during calculation.
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeFlat, RuleTypeQuantity:
		return true
	default:
		return false
	}
}

// String returns the string representation of RuleType
func (t RuleType) String() string {
	return string(t)
}

// DiscountType represents how a discount value is interpreted
type DiscountType string

const (
	// DiscountTypePercentage subtracts value percent of the running price
	DiscountTypePercentage DiscountType = "percentage"
	// DiscountTypeFixed subtracts a flat amount
	DiscountTypeFixed DiscountType = "fixed"
	// DiscountTypePrice clamps the running price down to the stated amount
	DiscountTypePrice DiscountType = "price"
)

// IsValid returns true if the discount type is valid
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixed, DiscountTypePrice:
		return true
	default:
		return false
	}
}

// String returns the string representation of DiscountType
func (t DiscountType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// QuantityBreak
// ---------------------------------------------------------------------------

// QuantityBreak overrides its parent rule's discount for a quantity range.
// The range is [MinQuantity, MaxQuantity); a nil MaxQuantity is unbounded.
type QuantityBreak struct {
	ID            uuid.UUID        `json:"id"`
	RuleID        uuid.UUID        `json:"rule_id"`
	MinQuantity   decimal.Decimal  `json:"min_quantity"`
	MaxQuantity   *decimal.Decimal `json:"max_quantity,omitempty"`
	DiscountType  DiscountType     `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
}

// Contains returns true if the quantity falls inside the break's range
func (b *QuantityBreak) Contains(qty decimal.Decimal) bool {
	if qty.LessThan(b.MinQuantity) {
		return false
	}
	if b.MaxQuantity != nil && qty.GreaterThanOrEqual(*b.MaxQuantity) {
		return false
	}
	return true
}

// Validate checks the break's range and discount configuration
func (b *QuantityBreak) Validate() error {
	if b.MinQuantity.IsNegative() {
		return ErrInvalidRule
	}
	if b.MaxQuantity != nil && b.MaxQuantity.LessThanOrEqual(b.MinQuantity) {
		return ErrInvalidRule
	}
	if !b.DiscountType.IsValid() {
		return ErrInvalidDiscountType
	}
	return nil
}

// ---------------------------------------------------------------------------
// PricingRule
// ---------------------------------------------------------------------------

// PricingRule is a tenant-scoped, time-windowed discount rule.
// All scope fields are optional; an unset scope field matches any context.
type PricingRule struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Name           string          `json:"name"`
	RuleType       RuleType        `json:"rule_type"`
	ProductID      *uuid.UUID      `json:"product_id,omitempty"`
	CategoryID     *uuid.UUID      `json:"category_id,omitempty"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerTierID *uuid.UUID      `json:"customer_tier_id,omitempty"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	Conditions     RuleConditions  `json:"conditions"`
	Priority       int             `json:"priority"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	IsActive       bool            `json:"is_active"`
	QuantityBreaks []QuantityBreak `json:"quantity_breaks,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsWithinWindow returns true if the rule's active window contains the
// given time. A nil start or end date is treated as unbounded.
func (r *PricingRule) IsWithinWindow(at time.Time) bool {
	if r.StartDate != nil && at.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && at.After(*r.EndDate) {
		return false
	}
	return true
}

// AppliesTo returns true if every set scope field matches the context.
// Unset scope fields are wildcards.
func (r *PricingRule) AppliesTo(pctx *PriceContext) bool {
	if r.ProductID != nil && *r.ProductID != pctx.ProductID {
		return false
	}
	if r.CategoryID != nil && (pctx.CategoryID == nil || *r.CategoryID != *pctx.CategoryID) {
		return false
	}
	if r.CustomerID != nil && (pctx.CustomerID == nil || *r.CustomerID != *pctx.CustomerID) {
		return false
	}
	if r.CustomerTierID != nil && (pctx.CustomerTierID == nil || *r.CustomerTierID != *pctx.CustomerTierID) {
		return false
	}
	return true
}

// BreakFor returns the first quantity break containing the quantity,
// scanning breaks in ascending MinQuantity order. Overlapping ranges are
// permitted; the first match wins. Returns nil when no break matches.
func (r *PricingRule) BreakFor(qty decimal.Decimal) *QuantityBreak {
	breaks := make([]QuantityBreak, len(r.QuantityBreaks))
	copy(breaks, r.QuantityBreaks)
	sort.SliceStable(breaks, func(i, j int) bool {
		return breaks[i].MinQuantity.LessThan(breaks[j].MinQuantity)
	})
	for i := range breaks {
		if breaks[i].Contains(qty) {
			b := breaks[i]
			return &b
		}
	}
	return nil
}

// Validate checks the rule's configuration
func (r *PricingRule) Validate() error {
	if r.Name == "" {
		return ErrInvalidRule
	}
	if !r.DiscountType.IsValid() {
		return ErrInvalidDiscountType
	}
	if r.DiscountValue.IsNegative() {
		return ErrInvalidRule
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return ErrInvalidRule
	}
	for i := range r.QuantityBreaks {
		if err := r.QuantityBreaks[i].Validate(); err != nil {
			return err
		}
	}
	return r.Conditions.Validate()
}

// SortRules orders rules by priority ascending, ties broken by creation
// time ascending. Together these define the total evaluation order.
func SortRules(rules []PricingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// RuleRepository provides access to stored pricing rules
type RuleRepository interface {
	// FindActiveRules returns active rules whose window contains the given
	// time, with quantity breaks loaded, ordered by priority ascending then
	// creation time ascending.
	FindActiveRules(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]PricingRule, error)
}

// AuditLogger records completed price calculations. Implementations are
// best-effort collaborators; a logging failure must not fail a calculation.
type AuditLogger interface {
	LogCalculation(ctx context.Context, pctx *PriceContext, result *PriceCalculationResult) error
}
