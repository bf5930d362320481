package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Inventory Levels
// ---------------------------------------------------------------------------

// InventoryLevel buckets the available/capacity ratio of a stock snapshot
type InventoryLevel string

const (
	// InventoryLevelCritical is below 10% of capacity
	InventoryLevelCritical InventoryLevel = "critical"
	// InventoryLevelLow is 10% to 25% of capacity
	InventoryLevelLow InventoryLevel = "low"
	// InventoryLevelMedium is 25% to 50% of capacity
	InventoryLevelMedium InventoryLevel = "medium"
	// InventoryLevelHigh is 50% to 75% of capacity
	InventoryLevelHigh InventoryLevel = "high"
	// InventoryLevelExcess is above 75% of capacity
	InventoryLevelExcess InventoryLevel = "excess"
)

// IsValid returns true if the inventory level is valid
func (l InventoryLevel) IsValid() bool {
	switch l {
	case InventoryLevelCritical, InventoryLevelLow, InventoryLevelMedium,
		InventoryLevelHigh, InventoryLevelExcess:
		return true
	default:
		return false
	}
}

// String returns the string representation of InventoryLevel
func (l InventoryLevel) String() string {
	return string(l)
}

// InventorySnapshot captures the stock position relevant to a calculation
type InventorySnapshot struct {
	Available   decimal.Decimal `json:"available"`
	Capacity    decimal.Decimal `json:"capacity"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
}

// Level buckets the snapshot by its fill ratio
func (s *InventorySnapshot) Level() InventoryLevel {
	if !s.Capacity.IsPositive() {
		return InventoryLevelCritical
	}
	pct := s.Available.Div(s.Capacity).Mul(decimal.NewFromInt(100))
	switch {
	case pct.LessThan(decimal.NewFromInt(10)):
		return InventoryLevelCritical
	case pct.LessThan(decimal.NewFromInt(25)):
		return InventoryLevelLow
	case pct.LessThan(decimal.NewFromInt(50)):
		return InventoryLevelMedium
	case pct.LessThanOrEqual(decimal.NewFromInt(75)):
		return InventoryLevelHigh
	default:
		return InventoryLevelExcess
	}
}

// ---------------------------------------------------------------------------
// RuleConditions
// ---------------------------------------------------------------------------

// attributePrefix marks custom condition keys that are compared against
// the context's free-form attributes. Unknown keys without this prefix
// disqualify the rule rather than being silently ignored.
const attributePrefix = "attr_"

// RuleConditions is the declarative predicate attached to a pricing rule.
// All set conditions must hold for the rule to apply (conjunction).
type RuleConditions struct {
	MinQuantity      *decimal.Decimal `json:"min_quantity,omitempty"`
	MaxQuantity      *decimal.Decimal `json:"max_quantity,omitempty"`
	AllowedTierIDs   []uuid.UUID      `json:"allowed_tier_ids,omitempty"`
	AllowedCategories []uuid.UUID     `json:"allowed_categories,omitempty"`
	Custom           CustomConditions `json:"custom,omitempty"`
}

// CustomConditions is the open-ended part of a rule's predicate, modeled
// as a union of known predicate kinds plus a prefixed attribute
// passthrough for keys this engine does not yet know.
type CustomConditions struct {
	MinOrderValue      *decimal.Decimal  `json:"min_order_value,omitempty"`
	DaysOfWeek         []time.Weekday    `json:"days_of_week,omitempty"`
	HourStart          *int              `json:"hour_start,omitempty"`
	HourEnd            *int              `json:"hour_end,omitempty"`
	ExactQuantity      *decimal.Decimal  `json:"exact_quantity,omitempty"`
	QuantityMultipleOf *decimal.Decimal  `json:"quantity_multiple_of,omitempty"`
	InventoryLevels    []InventoryLevel  `json:"inventory_levels,omitempty"`
	WarehouseID        *string           `json:"warehouse_id,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// IsZero returns true when no custom condition is set
func (c *CustomConditions) IsZero() bool {
	return c.MinOrderValue == nil && len(c.DaysOfWeek) == 0 &&
		c.HourStart == nil && c.HourEnd == nil &&
		c.ExactQuantity == nil && c.QuantityMultipleOf == nil &&
		len(c.InventoryLevels) == 0 && c.WarehouseID == nil && len(c.Extra) == 0
}

// Validate checks structural sanity of the conditions
func (c *RuleConditions) Validate() error {
	if c.MinQuantity != nil && c.MaxQuantity != nil && c.MaxQuantity.LessThan(*c.MinQuantity) {
		return ErrInvalidRule
	}
	if c.Custom.HourStart != nil && (*c.Custom.HourStart < 0 || *c.Custom.HourStart > 23) {
		return ErrInvalidRule
	}
	if c.Custom.HourEnd != nil && (*c.Custom.HourEnd < 0 || *c.Custom.HourEnd > 23) {
		return ErrInvalidRule
	}
	for _, lvl := range c.Custom.InventoryLevels {
		if !lvl.IsValid() {
			return ErrInvalidRule
		}
	}
	if c.Custom.QuantityMultipleOf != nil && !c.Custom.QuantityMultipleOf.IsPositive() {
		return ErrInvalidRule
	}
	return nil
}

// Matches evaluates the full condition set against a price context.
// Any failing condition disqualifies the rule.
func (c *RuleConditions) Matches(pctx *PriceContext) bool {
	if c.MinQuantity != nil && pctx.Quantity.LessThan(*c.MinQuantity) {
		return false
	}
	if c.MaxQuantity != nil && pctx.Quantity.GreaterThan(*c.MaxQuantity) {
		return false
	}
	if len(c.AllowedTierIDs) > 0 {
		if pctx.CustomerTierID == nil || !containsUUID(c.AllowedTierIDs, *pctx.CustomerTierID) {
			return false
		}
	}
	if len(c.AllowedCategories) > 0 {
		if pctx.CategoryID == nil || !containsUUID(c.AllowedCategories, *pctx.CategoryID) {
			return false
		}
	}
	return c.Custom.matches(pctx)
}

func (c *CustomConditions) matches(pctx *PriceContext) bool {
	if c.MinOrderValue != nil && pctx.OrderValue().LessThan(*c.MinOrderValue) {
		return false
	}
	if len(c.DaysOfWeek) > 0 && !containsWeekday(c.DaysOfWeek, pctx.EffectiveDate().Weekday()) {
		return false
	}
	if c.HourStart != nil || c.HourEnd != nil {
		hour := pctx.EffectiveDate().Hour()
		if c.HourStart != nil && hour < *c.HourStart {
			return false
		}
		if c.HourEnd != nil && hour > *c.HourEnd {
			return false
		}
	}
	if c.ExactQuantity != nil && !pctx.Quantity.Equal(*c.ExactQuantity) {
		return false
	}
	if c.QuantityMultipleOf != nil {
		if !c.QuantityMultipleOf.IsPositive() || !pctx.Quantity.Mod(*c.QuantityMultipleOf).IsZero() {
			return false
		}
	}
	if len(c.InventoryLevels) > 0 {
		if pctx.Inventory == nil {
			return false
		}
		level := pctx.Inventory.Level()
		found := false
		for _, want := range c.InventoryLevels {
			if want == level {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.WarehouseID != nil {
		if pctx.Inventory == nil || pctx.Inventory.WarehouseID != *c.WarehouseID {
			return false
		}
	}
	for key, want := range c.Extra {
		name, ok := strings.CutPrefix(key, attributePrefix)
		if !ok {
			// Unknown unprefixed key: fail closed so a future condition
			// kind never grants a discount it did not intend.
			return false
		}
		if pctx.Attributes[name] != want {
			return false
		}
	}
	return true
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsWeekday(days []time.Weekday, day time.Weekday) bool {
	for _, v := range days {
		if v == day {
			return true
		}
	}
	return false
}
