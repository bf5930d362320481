package integration

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/integration"
)

// SyncService reconciles local and platform state for sync jobs. It is
// the default SyncEngine implementation: the job manager delegates all
// job creation, execution, and cancellation here.
type SyncService struct {
	jobs      integration.JobRepository
	platform  integration.PlatformClient
	catalog   integration.LocalCatalog
	conflicts *ConflictResolutionService
	strategy  integration.ResolutionStrategy
	logger    *zap.Logger

	mu       sync.Mutex
	shutdown bool
}

// NewSyncService creates a new SyncService
func NewSyncService(
	jobs integration.JobRepository,
	platform integration.PlatformClient,
	catalog integration.LocalCatalog,
	conflicts *ConflictResolutionService,
	strategy integration.ResolutionStrategy,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		jobs:      jobs,
		platform:  platform,
		catalog:   catalog,
		conflicts: conflicts,
		strategy:  strategy,
		logger:    logger,
	}
}

// CreateJob validates, constructs, and persists a new pending sync job
func (s *SyncService) CreateJob(ctx context.Context, tenantID, integrationID uuid.UUID, jobType integration.JobType, config integration.JobConfig) (*integration.SyncJob, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	job, err := integration.NewSyncJob(tenantID, integrationID, jobType, config)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating sync job: %w", err)
	}
	s.logger.Info("sync job created",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", jobType.String()),
		zap.String("integration_id", integrationID.String()),
	)
	return job, nil
}

// ExecuteJob runs one sync job to completion. On success the job is
// marked completed and its queue entry removed. On failure the job is
// left running and the error returned; retry disposition belongs to the
// caller.
func (s *SyncService) ExecuteJob(ctx context.Context, jobID uuid.UUID) (*integration.JobResult, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading sync job %s: %w", jobID, err)
	}

	if err := job.Start(); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("marking job running: %w", err)
	}

	result, err := s.reconcile(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := job.Complete(*result); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("marking job completed: %w", err)
	}
	if err := s.jobs.RemoveFromQueue(ctx, job.ID); err != nil {
		s.logger.Warn("removing completed job from queue failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("sync job completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("total", result.TotalCount),
		zap.Int("synced", result.SyncedCount),
		zap.Int("conflicts", result.ConflictCount),
		zap.Int("resolved", result.ResolvedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

// reconcile pulls external snapshots for each configured entity type
// and reconciles them against the local catalog.
func (s *SyncService) reconcile(ctx context.Context, job *integration.SyncJob) (*integration.JobResult, error) {
	result := &integration.JobResult{}

	for _, entity := range job.Config.EntityTypes {
		snapshots, err := s.platform.FetchSnapshots(ctx, job.IntegrationID, entity, job.Config.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("fetching %s snapshots: %w", entity, err)
		}

		for i := range snapshots {
			external := snapshots[i]
			result.TotalCount++

			local, err := s.catalog.FindSnapshot(ctx, job.TenantID, entity, external.EntityID)
			if err != nil {
				result.FailedCount++
				s.logger.Warn("local snapshot lookup failed",
					zap.String("entity_id", external.EntityID),
					zap.Error(err),
				)
				continue
			}
			if local == nil {
				// Unmapped entity; nothing to reconcile.
				continue
			}

			conflicts := s.conflicts.DetectConflicts(local, &external)
			if len(conflicts) == 0 {
				result.SyncedCount++
				continue
			}
			result.ConflictCount += len(conflicts)

			report := s.conflicts.ResolveConflicts(ctx, job.ID, conflicts, s.strategy)
			result.ResolvedCount += report.ResolvedCount
			result.FailedCount += report.FailedCount

			if report.ResolvedCount > 0 {
				if err := s.applyResolutions(ctx, job, entity, &external, conflicts); err != nil {
					result.FailedCount++
					s.logger.Warn("applying resolutions failed",
						zap.String("entity_id", external.EntityID),
						zap.Error(err),
					)
					continue
				}
				result.SyncedCount++
			}
		}
	}

	return result, nil
}

// applyResolutions writes the winning values back to the local catalog
func (s *SyncService) applyResolutions(
	ctx context.Context,
	job *integration.SyncJob,
	entity integration.EntityType,
	external *integration.EntitySnapshot,
	conflicts []integration.SyncConflict,
) error {
	fields := make(map[string]any, len(conflicts))
	for i := range conflicts {
		resolved, err := s.conflicts.ResolvedValue(&conflicts[i], s.strategy)
		if err != nil {
			continue
		}
		fields[conflicts[i].Field] = resolved
	}
	if len(fields) == 0 {
		return nil
	}
	return s.catalog.ApplyResolution(ctx, job.TenantID, entity, external.EntityID, fields)
}

// CancelJob cancels a job that has not reached a terminal state
func (s *SyncService) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading sync job %s: %w", jobID, err)
	}
	if err := job.Cancel(); err != nil {
		return err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("marking job cancelled: %w", err)
	}
	if err := s.jobs.RemoveFromQueue(ctx, jobID); err != nil {
		s.logger.Warn("removing cancelled job from queue failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
	}
	s.logger.Info("sync job cancelled", zap.String("job_id", jobID.String()))
	return nil
}

// Shutdown stops the service from accepting further work
func (s *SyncService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	s.logger.Info("sync service shut down")
	return nil
}

func (s *SyncService) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return integration.ErrEngineShutdown
	}
	return nil
}

var _ integration.SyncEngine = (*SyncService)(nil)
