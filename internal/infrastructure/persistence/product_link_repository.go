package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormProductLinkRepository implements the LocalCatalog port on top of
// the product_links table.
type GormProductLinkRepository struct {
	db *gorm.DB
}

// NewGormProductLinkRepository creates a new GormProductLinkRepository
func NewGormProductLinkRepository(db *gorm.DB) *GormProductLinkRepository {
	return &GormProductLinkRepository{db: db}
}

// FindSnapshot returns the local snapshot of an entity, or nil when the
// entity is not linked locally. Only the fields relevant to the entity
// type are exposed, matching what the platform side reports.
func (r *GormProductLinkRepository) FindSnapshot(ctx context.Context, tenantID uuid.UUID, entity integration.EntityType, entityID string) (*integration.EntitySnapshot, error) {
	var model models.ProductLinkModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ? AND sync_enabled = ?", tenantID, entityID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying product link: %w", err)
	}

	updatedAt := model.UpdatedAt
	snapshot := &integration.EntitySnapshot{
		EntityID:  entityID,
		Fields:    make(map[string]any),
		UpdatedAt: &updatedAt,
	}

	switch entity {
	case integration.EntityTypeInventory:
		snapshot.Fields["quantity"] = model.Quantity.IntPart()
	case integration.EntityTypePrice:
		snapshot.Fields["price"] = model.Price.String()
	default:
		snapshot.Fields["name"] = model.Name
		snapshot.Fields["quantity"] = model.Quantity.IntPart()
		snapshot.Fields["price"] = model.Price.String()
	}

	return snapshot, nil
}

// ApplyResolution writes resolved field values to the local product link
func (r *GormProductLinkRepository) ApplyResolution(ctx context.Context, tenantID uuid.UUID, entity integration.EntityType, entityID string, fields map[string]any) error {
	updates := make(map[string]any, len(fields))
	for field, value := range fields {
		switch field {
		case "name":
			updates["name"] = fmt.Sprintf("%v", value)
		case "quantity":
			qty, err := decimal.NewFromString(fmt.Sprintf("%v", value))
			if err != nil {
				return fmt.Errorf("resolved quantity %v is not numeric: %w", value, err)
			}
			updates["quantity"] = qty
		case "price":
			price, err := decimal.NewFromString(fmt.Sprintf("%v", value))
			if err != nil {
				return fmt.Errorf("resolved price %v is not numeric: %w", value, err)
			}
			updates["price"] = price
		}
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProductLinkModel{}).
		Where("tenant_id = ? AND external_id = ?", tenantID, entityID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("applying resolution to product link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product link %s not found for tenant %s", entityID, tenantID)
	}
	return nil
}

// Save creates or updates a product link
func (r *GormProductLinkRepository) Save(ctx context.Context, link *models.ProductLinkModel) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// Ensure GormProductLinkRepository implements LocalCatalog
var _ integration.LocalCatalog = (*GormProductLinkRepository)(nil)
