package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/pricing"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormAuditLogger implements pricing.AuditLogger using GORM. Rows are
// append-only; callers treat failures as best-effort.
type GormAuditLogger struct {
	db *gorm.DB
}

// NewGormAuditLogger creates a new GormAuditLogger
func NewGormAuditLogger(db *gorm.DB) *GormAuditLogger {
	return &GormAuditLogger{db: db}
}

// LogCalculation records one completed price calculation
func (l *GormAuditLogger) LogCalculation(ctx context.Context, pctx *pricing.PriceContext, result *pricing.PriceCalculationResult) error {
	model := models.PriceAuditLogModel{
		ID:             uuid.New(),
		TenantID:       pctx.TenantID,
		ProductID:      pctx.ProductID,
		CustomerID:     pctx.CustomerID,
		Quantity:       pctx.Quantity,
		BasePrice:      result.BasePrice,
		FinalPrice:     result.FinalPrice,
		DiscountAmount: result.DiscountAmount,
		CalculatedAt:   result.CalculatedAt,
	}
	if jsonBytes, err := json.Marshal(result.AppliedRules); err == nil {
		model.AppliedRulesJSON = string(jsonBytes)
	}
	if err := l.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("writing price audit log: %w", err)
	}
	return nil
}

var _ pricing.AuditLogger = (*GormAuditLogger)(nil)
