package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercehub/backend/internal/domain/pricing"
)

// PricingRuleModel is the persistence model for the PricingRule domain entity.
type PricingRuleModel struct {
	ID             uuid.UUID            `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_pricing_rules_tenant,priority:1"`
	Name           string               `gorm:"type:varchar(255);not null"`
	RuleType       pricing.RuleType     `gorm:"type:varchar(20);not null;default:'flat'"`
	ProductID      *uuid.UUID           `gorm:"type:uuid;index"`
	CategoryID     *uuid.UUID           `gorm:"type:uuid;index"`
	CustomerID     *uuid.UUID           `gorm:"type:uuid;index"`
	CustomerTierID *uuid.UUID           `gorm:"type:uuid;index"`
	DiscountType   pricing.DiscountType `gorm:"type:varchar(20);not null"`
	DiscountValue  decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
	ConditionsJSON string               `gorm:"type:jsonb;column:conditions"`
	Priority       int                  `gorm:"not null;default:0;index"`
	StartDate      *time.Time           `gorm:"index"`
	EndDate        *time.Time           `gorm:"index"`
	IsActive       bool                 `gorm:"not null;default:true;index"`
	QuantityBreaks []QuantityBreakModel `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"not null"`
	UpdatedAt      time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PricingRuleModel) TableName() string {
	return "pricing_rules"
}

// ToDomain converts the persistence model to a domain PricingRule entity.
func (m *PricingRuleModel) ToDomain() *pricing.PricingRule {
	rule := &pricing.PricingRule{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Name:           m.Name,
		RuleType:       m.RuleType,
		ProductID:      m.ProductID,
		CategoryID:     m.CategoryID,
		CustomerID:     m.CustomerID,
		CustomerTierID: m.CustomerTierID,
		DiscountType:   m.DiscountType,
		DiscountValue:  m.DiscountValue,
		Priority:       m.Priority,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.ConditionsJSON != "" {
		var conditions pricing.RuleConditions
		if err := json.Unmarshal([]byte(m.ConditionsJSON), &conditions); err == nil {
			rule.Conditions = conditions
		}
	}

	if len(m.QuantityBreaks) > 0 {
		rule.QuantityBreaks = make([]pricing.QuantityBreak, len(m.QuantityBreaks))
		for i := range m.QuantityBreaks {
			rule.QuantityBreaks[i] = *m.QuantityBreaks[i].ToDomain()
		}
	}

	return rule
}

// FromDomain populates the persistence model from a domain PricingRule entity.
func (m *PricingRuleModel) FromDomain(r *pricing.PricingRule) {
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.Name = r.Name
	m.RuleType = r.RuleType
	m.ProductID = r.ProductID
	m.CategoryID = r.CategoryID
	m.CustomerID = r.CustomerID
	m.CustomerTierID = r.CustomerTierID
	m.DiscountType = r.DiscountType
	m.DiscountValue = r.DiscountValue
	m.Priority = r.Priority
	m.StartDate = r.StartDate
	m.EndDate = r.EndDate
	m.IsActive = r.IsActive
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt

	if jsonBytes, err := json.Marshal(r.Conditions); err == nil {
		m.ConditionsJSON = string(jsonBytes)
	}

	m.QuantityBreaks = make([]QuantityBreakModel, len(r.QuantityBreaks))
	for i := range r.QuantityBreaks {
		m.QuantityBreaks[i].FromDomain(&r.QuantityBreaks[i])
	}
}

// QuantityBreakModel is the persistence model for the QuantityBreak value object.
type QuantityBreakModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	RuleID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	MinQuantity   decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
	MaxQuantity   *decimal.Decimal     `gorm:"type:decimal(20,4)"`
	DiscountType  pricing.DiscountType `gorm:"type:varchar(20);not null"`
	DiscountValue decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
}

// TableName returns the table name for GORM
func (QuantityBreakModel) TableName() string {
	return "quantity_breaks"
}

// ToDomain converts the persistence model to a domain QuantityBreak.
func (m *QuantityBreakModel) ToDomain() *pricing.QuantityBreak {
	return &pricing.QuantityBreak{
		ID:            m.ID,
		RuleID:        m.RuleID,
		MinQuantity:   m.MinQuantity,
		MaxQuantity:   m.MaxQuantity,
		DiscountType:  m.DiscountType,
		DiscountValue: m.DiscountValue,
	}
}

// FromDomain populates the persistence model from a domain QuantityBreak.
func (m *QuantityBreakModel) FromDomain(b *pricing.QuantityBreak) {
	m.ID = b.ID
	m.RuleID = b.RuleID
	m.MinQuantity = b.MinQuantity
	m.MaxQuantity = b.MaxQuantity
	m.DiscountType = b.DiscountType
	m.DiscountValue = b.DiscountValue
}

// PriceAuditLogModel records one completed price calculation for audit.
// Audit rows are append-only; nothing updates them after insert.
type PriceAuditLogModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_audit_tenant,priority:1"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID       *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	BasePrice        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	FinalPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	AppliedRulesJSON string          `gorm:"type:jsonb;column:applied_rules"`
	CalculatedAt     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PriceAuditLogModel) TableName() string {
	return "price_audit_logs"
}
