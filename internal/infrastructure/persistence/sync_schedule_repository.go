package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormScheduleRepository implements integration.ScheduleRepository using GORM
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// FindEnabled returns all enabled sync schedules
func (r *GormScheduleRepository) FindEnabled(ctx context.Context) ([]integration.SyncSchedule, error) {
	var scheduleModels []models.SyncScheduleModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, fmt.Errorf("querying enabled sync schedules: %w", err)
	}

	schedules := make([]integration.SyncSchedule, len(scheduleModels))
	for i := range scheduleModels {
		schedules[i] = *scheduleModels[i].ToDomain()
	}
	return schedules, nil
}

// MarkRun records that the schedule fired at the given instant
func (r *GormScheduleRepository) MarkRun(ctx context.Context, scheduleID uuid.UUID, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.SyncScheduleModel{}).
		Where("id = ?", scheduleID).
		Updates(map[string]any{"last_run_at": at, "updated_at": at}).Error; err != nil {
		return fmt.Errorf("recording schedule run: %w", err)
	}
	return nil
}

// Save creates or updates a sync schedule
func (r *GormScheduleRepository) Save(ctx context.Context, schedule *integration.SyncSchedule) error {
	var model models.SyncScheduleModel
	model.FromDomain(schedule)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("saving sync schedule: %w", err)
	}
	return nil
}

var _ integration.ScheduleRepository = (*GormScheduleRepository)(nil)
