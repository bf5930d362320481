package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormResolutionRepository implements integration.ResolutionRepository
// using GORM. Resolution rows are append-only history.
type GormResolutionRepository struct {
	db *gorm.DB
}

// NewGormResolutionRepository creates a new GormResolutionRepository
func NewGormResolutionRepository(db *gorm.DB) *GormResolutionRepository {
	return &GormResolutionRepository{db: db}
}

// Save persists one conflict resolution record
func (r *GormResolutionRepository) Save(ctx context.Context, resolution *integration.ConflictResolution) error {
	var model models.ConflictResolutionModel
	model.FromDomain(resolution)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("saving conflict resolution: %w", err)
	}
	return nil
}

var _ integration.ResolutionRepository = (*GormResolutionRepository)(nil)
