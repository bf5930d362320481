package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/pricing"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormRuleRepository implements pricing.RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindActiveRules returns the tenant's active rules whose window contains
// the given time, with quantity breaks preloaded, ordered by priority
// ascending then creation time ascending.
func (r *GormRuleRepository) FindActiveRules(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]pricing.PricingRule, error) {
	var ruleModels []models.PricingRuleModel
	if err := r.db.WithContext(ctx).
		Preload("QuantityBreaks").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Where("start_date IS NULL OR start_date <= ?", at).
		Where("end_date IS NULL OR end_date >= ?", at).
		Order("priority ASC, created_at ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, fmt.Errorf("querying active pricing rules: %w", err)
	}

	rules := make([]pricing.PricingRule, len(ruleModels))
	for i := range ruleModels {
		rules[i] = *ruleModels[i].ToDomain()
	}
	return rules, nil
}

// Save creates or updates a pricing rule with its quantity breaks
func (r *GormRuleRepository) Save(ctx context.Context, rule *pricing.PricingRule) error {
	var model models.PricingRuleModel
	model.FromDomain(rule)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("saving pricing rule: %w", err)
	}
	return nil
}

// FindByID finds a rule by its ID
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PricingRule, error) {
	var model models.PricingRuleModel
	if err := r.db.WithContext(ctx).
		Preload("QuantityBreaks").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrRuleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ pricing.RuleRepository = (*GormRuleRepository)(nil)
