package pricing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/pricing"
)

// RuleEvaluator resolves the ordered set of pricing rules applicable to
// one price context.
type RuleEvaluator struct {
	rules  pricing.RuleRepository
	logger *zap.Logger
}

// NewRuleEvaluator creates a new RuleEvaluator
func NewRuleEvaluator(rules pricing.RuleRepository, logger *zap.Logger) *RuleEvaluator {
	return &RuleEvaluator{
		rules:  rules,
		logger: logger,
	}
}

// ApplicableRules fetches active rules whose window contains the
// context's date and filters them down to those whose scope and
// conditions match, preserving priority-then-creation evaluation order.
// A storage failure is a hard failure and propagates to the caller.
func (e *RuleEvaluator) ApplicableRules(ctx context.Context, pctx *pricing.PriceContext) ([]pricing.PricingRule, error) {
	at := pctx.EffectiveDate()

	rules, err := e.rules.FindActiveRules(ctx, pctx.TenantID, at)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pricing.ErrRuleFetchFailed, err)
	}

	// The repository promises evaluation order, but the order is an
	// invariant of the calculation, so it is enforced here as well.
	pricing.SortRules(rules)

	applicable := make([]pricing.PricingRule, 0, len(rules))
	for i := range rules {
		rule := rules[i]
		if !rule.IsActive || !rule.IsWithinWindow(at) {
			continue
		}
		if !rule.AppliesTo(pctx) {
			continue
		}
		if !rule.Conditions.Matches(pctx) {
			continue
		}
		applicable = append(applicable, rule)
	}

	e.logger.Debug("evaluated pricing rules",
		zap.String("tenant_id", pctx.TenantID.String()),
		zap.String("product_id", pctx.ProductID.String()),
		zap.Int("fetched", len(rules)),
		zap.Int("applicable", len(applicable)),
	)

	return applicable, nil
}
