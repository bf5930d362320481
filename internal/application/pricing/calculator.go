package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/commercehub/backend/internal/domain/pricing"
)

// ---------------------------------------------------------------------------
// Collaborator contracts
// ---------------------------------------------------------------------------

// RuleSource provides the ordered applicable rules for a context
type RuleSource interface {
	ApplicableRules(ctx context.Context, pctx *pricing.PriceContext) ([]pricing.PricingRule, error)
}

// ResultCache stores calculation results under deterministic keys.
// Implementations must treat expired entries as absent.
type ResultCache interface {
	Get(ctx context.Context, key string) (*pricing.PriceCalculationResult, bool, error)
	Set(ctx context.Context, key string, result *pricing.PriceCalculationResult, ttl time.Duration) error
}

// ---------------------------------------------------------------------------
// CalculatorConfig
// ---------------------------------------------------------------------------

// CalculatorConfig holds tunables for the price calculator
type CalculatorConfig struct {
	// CacheTTL is how long calculation results stay cached
	CacheTTL time.Duration
	// BatchWidth bounds concurrent calculations in a batch
	BatchWidth int
}

// DefaultCalculatorConfig returns the default calculator configuration
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		CacheTTL:   5 * time.Minute,
		BatchWidth: 10,
	}
}

func (c CalculatorConfig) withDefaults() CalculatorConfig {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.BatchWidth <= 0 {
		c.BatchWidth = 10
	}
	return c
}

// ---------------------------------------------------------------------------
// PriceCalculator
// ---------------------------------------------------------------------------

// PriceCalculator orchestrates one price calculation: cache lookup, rule
// evaluation, sequential rule application, minimum-margin enforcement,
// cache write, and audit logging.
type PriceCalculator struct {
	config CalculatorConfig
	rules  RuleSource
	cache  ResultCache
	audit  pricing.AuditLogger
	logger *zap.Logger
}

// NewPriceCalculator creates a new PriceCalculator
func NewPriceCalculator(
	config CalculatorConfig,
	rules RuleSource,
	cache ResultCache,
	audit pricing.AuditLogger,
	logger *zap.Logger,
) *PriceCalculator {
	return &PriceCalculator{
		config: config.withDefaults(),
		rules:  rules,
		cache:  cache,
		audit:  audit,
		logger: logger,
	}
}

// CalculatePrice resolves the effective price for the context. The
// result is deterministic for identical inputs within the cache TTL.
func (c *PriceCalculator) CalculatePrice(ctx context.Context, pctx *pricing.PriceContext) (*pricing.PriceCalculationResult, error) {
	if err := pctx.Validate(); err != nil {
		return nil, err
	}

	key := pctx.CacheKey()
	if cached := c.cachedResult(ctx, key); cached != nil {
		return cached, nil
	}

	rules, err := c.rules.ApplicableRules(ctx, pctx)
	if err != nil {
		return nil, err
	}

	result := c.applyRules(pctx, rules)

	if err := c.cache.Set(ctx, key, result, c.config.CacheTTL); err != nil {
		c.logger.Warn("price cache write failed",
			zap.String("cache_key", key),
			zap.Error(err),
		)
	}
	if c.audit != nil {
		if err := c.audit.LogCalculation(ctx, pctx, result); err != nil {
			c.logger.Warn("price audit log write failed",
				zap.String("product_id", pctx.ProductID.String()),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// CalculatePrices runs a batch of calculations with bounded concurrency.
// A single item's failure is logged and excluded from the result map;
// it never aborts the batch.
func (c *PriceCalculator) CalculatePrices(ctx context.Context, contexts []pricing.PriceContext) map[uuid.UUID]*pricing.PriceCalculationResult {
	results := make(map[uuid.UUID]*pricing.PriceCalculationResult, len(contexts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.BatchWidth)

	for i := range contexts {
		pctx := contexts[i]
		g.Go(func() error {
			result, err := c.CalculatePrice(gctx, &pctx)
			if err != nil {
				c.logger.Warn("batch price calculation item failed",
					zap.String("product_id", pctx.ProductID.String()),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[pctx.ProductID] = result
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	return results
}

func (c *PriceCalculator) cachedResult(ctx context.Context, key string) *pricing.PriceCalculationResult {
	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("price cache read failed",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return nil
	}
	if !ok {
		return nil
	}
	return cached
}

// applyRules walks the rules in evaluation order, applying each
// contributing discount to the running unit price, then enforces the
// minimum margin and derives the discount aggregates.
func (c *PriceCalculator) applyRules(pctx *pricing.PriceContext, rules []pricing.PricingRule) *pricing.PriceCalculationResult {
	price := pctx.BasePrice
	applied := make([]pricing.AppliedRule, 0, len(rules))

	for i := range rules {
		rule := rules[i]
		discountType := rule.DiscountType
		discountValue := rule.DiscountValue

		switch {
		case rule.RuleType == pricing.RuleTypeQuantity:
			brk := rule.BreakFor(pctx.Quantity)
			if brk == nil {
				// No break covers this quantity: the rule contributes
				// nothing and is skipped, not an error.
				continue
			}
			discountType = brk.DiscountType
			discountValue = brk.DiscountValue
		case !rule.RuleType.IsValid():
			continue
		}

		amount := discountAmount(price, discountType, discountValue)
		next := price.Sub(amount)
		if next.IsNegative() {
			amount = price
			next = decimal.Zero
		}
		price = next

		applied = append(applied, pricing.AppliedRule{
			RuleID:         rule.ID,
			Name:           rule.Name,
			DiscountType:   discountType,
			DiscountValue:  discountValue,
			DiscountAmount: amount,
		})
	}

	price = enforceMinimumMargin(price, pctx.UnitCost, pctx.MinMarginPercent)

	discount := pctx.BasePrice.Sub(price)
	discountPercent := decimal.Zero
	if pctx.BasePrice.IsPositive() {
		discountPercent = discount.Div(pctx.BasePrice).Mul(decimal.NewFromInt(100))
	}

	return &pricing.PriceCalculationResult{
		BasePrice:       pctx.BasePrice,
		FinalPrice:      price,
		DiscountAmount:  discount,
		DiscountPercent: discountPercent,
		MarginPercent:   marginPercent(price, pctx.UnitCost),
		AppliedRules:    applied,
		CalculatedAt:    time.Now(),
	}
}

// discountAmount computes how much one discount takes off the running
// price. A price-type discount clamps to the stated absolute price, so
// its amount may be negative when the running price is already lower.
func discountAmount(price decimal.Decimal, discountType pricing.DiscountType, value decimal.Decimal) decimal.Decimal {
	switch discountType {
	case pricing.DiscountTypePercentage:
		return price.Mul(value).Div(decimal.NewFromInt(100))
	case pricing.DiscountTypeFixed:
		return value
	case pricing.DiscountTypePrice:
		return price.Sub(value)
	default:
		return decimal.Zero
	}
}

// enforceMinimumMargin raises the price to cost/(1-margin/100) when the
// achieved margin falls short of the required minimum.
func enforceMinimumMargin(price decimal.Decimal, unitCost *decimal.Decimal, minMargin decimal.Decimal) decimal.Decimal {
	if unitCost == nil || !minMargin.IsPositive() {
		return price
	}
	hundred := decimal.NewFromInt(100)
	if price.IsPositive() {
		margin := price.Sub(*unitCost).Div(price).Mul(hundred)
		if margin.GreaterThanOrEqual(minMargin) {
			return price
		}
	}
	divisor := decimal.NewFromInt(1).Sub(minMargin.Div(hundred))
	if !divisor.IsPositive() {
		return price
	}
	return unitCost.Div(divisor)
}

func marginPercent(price decimal.Decimal, unitCost *decimal.Decimal) decimal.Decimal {
	if unitCost == nil || !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(*unitCost).Div(price).Mul(decimal.NewFromInt(100))
}
