package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// jobStateColumns are the sync_jobs columns owned by the domain entity.
// The queue columns (queued, locked_by, locked_until, next_run_at) are
// managed exclusively by the claim protocol below.
var jobStateColumns = []string{"status", "attempts", "result", "error", "started_at", "completed_at", "updated_at"}

// GormSyncJobRepository implements integration.JobRepository using GORM.
// Claiming is a single guarded UPDATE so concurrent workers can never
// run the same job.
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Create persists a new sync job and enqueues it
func (r *GormSyncJobRepository) Create(ctx context.Context, job *integration.SyncJob) error {
	var model models.SyncJobModel
	model.FromDomain(job)
	model.Queued = true
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("creating sync job: %w", err)
	}
	return nil
}

// Update persists the job's domain state, leaving queue columns alone
func (r *GormSyncJobRepository) Update(ctx context.Context, job *integration.SyncJob) error {
	var model models.SyncJobModel
	model.FromDomain(job)
	if err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ?", job.ID).
		Select(jobStateColumns).
		Updates(&model).Error; err != nil {
		return fmt.Errorf("updating sync job: %w", err)
	}
	return nil
}

// FindByID finds a sync job by its ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ClaimNext atomically claims the next runnable pending job for the
// worker, holding a lease until now+lease. Runnable means queued,
// pending, unlocked (or lease-expired), and past any retry delay.
// Returns (nil, nil) when nothing is runnable.
func (r *GormSyncJobRepository) ClaimNext(ctx context.Context, workerID string, lease time.Duration) (*integration.SyncJob, error) {
	now := time.Now()
	lockedUntil := now.Add(lease)

	var model models.SyncJobModel
	result := r.db.WithContext(ctx).Raw(`
		UPDATE sync_jobs
		SET locked_by = ?, locked_until = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM sync_jobs
			WHERE queued = true
			  AND status = ?
			  AND (locked_until IS NULL OR locked_until < ?)
			  AND (next_run_at IS NULL OR next_run_at <= ?)
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`,
		workerID, lockedUntil, now,
		integration.JobStatusPending, now, now,
	).Scan(&model)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrJobClaimFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return model.ToDomain(), nil
}

// Release returns a claimed job to the queue, runnable again after the
// retry delay. A job caught mid-run by a crashed worker is still
// "running" in storage; releasing it moves it back to pending so
// ClaimNext can hand it to another worker. Releasing a job with no
// queue entry is a no-op.
func (r *GormSyncJobRepository) Release(ctx context.Context, jobID uuid.UUID, retryDelay time.Duration) error {
	updates := map[string]any{
		"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
			integration.JobStatusRunning, integration.JobStatusPending),
		"locked_by":    "",
		"locked_until": nil,
		"next_run_at":  time.Now().Add(retryDelay),
		"updated_at":   time.Now(),
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ? AND queued = ?", jobID, true).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("releasing sync job: %w", err)
	}
	return nil
}

// RemoveFromQueue drops the job's queue entry without touching its
// domain state. Removing a missing entry is a no-op.
func (r *GormSyncJobRepository) RemoveFromQueue(ctx context.Context, jobID uuid.UUID) error {
	updates := map[string]any{
		"queued":       false,
		"locked_by":    "",
		"locked_until": nil,
		"next_run_at":  nil,
		"updated_at":   time.Now(),
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ?", jobID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("removing sync job from queue: %w", err)
	}
	return nil
}

// FindStale returns ids of queued jobs whose lease expired before now
func (r *GormSyncJobRepository) FindStale(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("queued = ? AND locked_until IS NOT NULL AND locked_until < ?", true, now).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("finding stale sync job claims: %w", err)
	}
	return ids, nil
}

var _ integration.JobRepository = (*GormSyncJobRepository)(nil)
