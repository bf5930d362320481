package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Platform Errors
// ---------------------------------------------------------------------------

var (
	// ErrPlatformNotConfigured is returned when no platform credentials
	// exist for the integration
	ErrPlatformNotConfigured = errors.New("integration: platform not configured")
	// ErrPlatformUnavailable is returned when the platform cannot be reached
	ErrPlatformUnavailable = errors.New("integration: platform unavailable")
	// ErrPlatformRequestFailed is returned when the platform rejects a request
	ErrPlatformRequestFailed = errors.New("integration: platform request failed")
)

// ---------------------------------------------------------------------------
// Storage Ports
// ---------------------------------------------------------------------------

// JobRepository stores sync jobs and provides the queue primitives the
// job manager polls against. ClaimNext must be atomic at the storage
// layer so two manager instances never run the same job concurrently.
type JobRepository interface {
	Create(ctx context.Context, job *SyncJob) error
	Update(ctx context.Context, job *SyncJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// ClaimNext atomically claims the next runnable pending job for the
	// worker, holding a lease for the given duration. Returns (nil, nil)
	// when no job is available.
	ClaimNext(ctx context.Context, workerID string, lease time.Duration) (*SyncJob, error)
	// Release returns a claimed job to the queue, runnable again after
	// the retry delay. A job left in running state by a dead worker
	// must come back as pending so ClaimNext sees it. Releasing a job
	// with no queue entry is a no-op.
	Release(ctx context.Context, jobID uuid.UUID, retryDelay time.Duration) error
	// RemoveFromQueue drops the job's queue entry without touching the
	// job record. Removing a missing entry is a no-op.
	RemoveFromQueue(ctx context.Context, jobID uuid.UUID) error
	// FindStale returns ids of claimed jobs whose lease expired before now
	FindStale(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// ScheduleRepository stores sync schedules
type ScheduleRepository interface {
	FindEnabled(ctx context.Context) ([]SyncSchedule, error)
	MarkRun(ctx context.Context, scheduleID uuid.UUID, at time.Time) error
}

// ResolutionRepository persists immutable conflict resolution history
type ResolutionRepository interface {
	Save(ctx context.Context, resolution *ConflictResolution) error
}

// ---------------------------------------------------------------------------
// Sync Engine Port
// ---------------------------------------------------------------------------

// SyncEngine executes and manages sync jobs. The job manager delegates
// job creation and execution here and never duplicates its persistence
// logic.
type SyncEngine interface {
	ExecuteJob(ctx context.Context, jobID uuid.UUID) (*JobResult, error)
	CreateJob(ctx context.Context, tenantID, integrationID uuid.UUID, jobType JobType, config JobConfig) (*SyncJob, error)
	CancelJob(ctx context.Context, jobID uuid.UUID) error
	Shutdown(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Platform / Catalog Ports
// ---------------------------------------------------------------------------

// PlatformClient talks to the external e-commerce platform on behalf of
// one integration.
type PlatformClient interface {
	// FetchSnapshots pulls comparable entity snapshots from the platform
	FetchSnapshots(ctx context.Context, integrationID uuid.UUID, entity EntityType, batchSize int) ([]EntitySnapshot, error)
	// PushUpdate writes resolved field values back to the platform
	PushUpdate(ctx context.Context, integrationID uuid.UUID, entity EntityType, entityID string, fields map[string]any) error
}

// LocalCatalog is the local side of a reconciliation
type LocalCatalog interface {
	// FindSnapshot returns the local snapshot of an entity, or nil when
	// the entity is not mapped locally.
	FindSnapshot(ctx context.Context, tenantID uuid.UUID, entity EntityType, entityID string) (*EntitySnapshot, error)
	// ApplyResolution writes resolved field values to local storage
	ApplyResolution(ctx context.Context, tenantID uuid.UUID, entity EntityType, entityID string, fields map[string]any) error
}
