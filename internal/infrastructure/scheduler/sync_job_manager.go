package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// SyncJobManagerConfig
// ---------------------------------------------------------------------------

// SyncJobManagerConfig holds configuration for the sync job manager
type SyncJobManagerConfig struct {
	// WorkerID identifies this manager instance in queue claims
	WorkerID string
	// PollInterval is how often the queue is polled for runnable jobs
	PollInterval time.Duration
	// MaxConcurrentJobs caps how many jobs run at once
	MaxConcurrentJobs int
	// ClaimLease is how long a claimed job is held before it counts as stale
	ClaimLease time.Duration
	// ScheduleSweepInterval is how often schedules are checked for due runs
	ScheduleSweepInterval time.Duration
	// StaleSweepInterval is how often expired claims are released
	StaleSweepInterval time.Duration
	// DrainTimeout is how long Stop waits for running jobs to finish
	DrainTimeout time.Duration
	// ForceCancelTimeout is how long Stop waits after cancelling survivors
	ForceCancelTimeout time.Duration
}

// DefaultSyncJobManagerConfig returns default configuration
func DefaultSyncJobManagerConfig() SyncJobManagerConfig {
	return SyncJobManagerConfig{
		WorkerID:              uuid.NewString(),
		PollInterval:          time.Second,
		MaxConcurrentJobs:     5,
		ClaimLease:            60 * time.Second,
		ScheduleSweepInterval: 30 * time.Second,
		StaleSweepInterval:    30 * time.Second,
		DrainTimeout:          30 * time.Second,
		ForceCancelTimeout:    5 * time.Second,
	}
}

// Validate validates the configuration
func (c *SyncJobManagerConfig) Validate() error {
	if c.WorkerID == "" {
		return ErrInvalidConfig
	}
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.ClaimLease <= 0 {
		return ErrInvalidConfig
	}
	if c.ScheduleSweepInterval <= 0 || c.StaleSweepInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncJobManager
// ---------------------------------------------------------------------------

// SyncJobManager polls the job queue, claims runnable jobs under a
// lease, and runs them through the sync engine with bounded
// concurrency. It also fires due schedules and releases stale claims
// left behind by crashed workers. All job persistence goes through the
// engine and repositories; the manager itself holds no job state beyond
// its active slot set.
type SyncJobManager struct {
	config    SyncJobManagerConfig
	engine    integration.SyncEngine
	jobs      integration.JobRepository
	schedules integration.ScheduleRepository
	logger    *zap.Logger

	slots *jobSlots

	// Loops and jobs stop on separate contexts: Stop cancels the loops
	// immediately but lets in-flight jobs run on until the drain window
	// lapses.
	loopCancel context.CancelFunc
	jobCtx     context.Context
	jobCancel  context.CancelFunc
	loopWg     sync.WaitGroup
	jobWg      sync.WaitGroup

	mu        sync.Mutex
	isRunning bool
}

// NewSyncJobManager creates a new sync job manager
func NewSyncJobManager(
	config SyncJobManagerConfig,
	engine integration.SyncEngine,
	jobs integration.JobRepository,
	schedules integration.ScheduleRepository,
	logger *zap.Logger,
) (*SyncJobManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SyncJobManager{
		config:    config,
		engine:    engine,
		jobs:      jobs,
		schedules: schedules,
		logger:    logger,
		slots:     newJobSlots(config.MaxConcurrentJobs),
		jobCtx:    context.Background(),
		jobCancel: func() {},
	}, nil
}

// Start starts the polling loops. Calling Start on a running manager is
// a no-op.
func (m *SyncJobManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = true
	m.mu.Unlock()

	loopCtx, loopCancel := context.WithCancel(ctx)
	m.loopCancel = loopCancel
	m.jobCtx, m.jobCancel = context.WithCancel(ctx)

	m.loopWg.Add(3)
	go m.pollLoop(loopCtx)
	go m.scheduleLoop(loopCtx)
	go m.staleLoop(loopCtx)

	m.logger.Info("Sync job manager started",
		zap.String("worker_id", m.config.WorkerID),
		zap.Int("max_concurrent_jobs", m.config.MaxConcurrentJobs),
		zap.Duration("poll_interval", m.config.PollInterval),
		zap.Duration("claim_lease", m.config.ClaimLease),
	)
	return nil
}

// Stop stops the loops, then drains: in-flight jobs keep their context
// and may finish within the drain window. Jobs still running after the
// window are cancelled, both through their context and through the
// engine; the engine itself is shut down last. Stopping a stopped
// manager is a no-op.
func (m *SyncJobManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	m.mu.Unlock()

	m.loopCancel()
	m.loopWg.Wait()

	done := make(chan struct{})
	go func() {
		m.jobWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(m.config.DrainTimeout):
		survivors := m.slots.IDs()
		m.logger.Warn("Sync job manager drain timed out, cancelling remaining jobs",
			zap.Int("remaining", len(survivors)),
		)
		m.jobCancel()
		for _, jobID := range survivors {
			if err := m.engine.CancelJob(ctx, jobID); err != nil {
				m.logger.Warn("Cancelling job during shutdown failed",
					zap.String("job_id", jobID.String()),
					zap.Error(err),
				)
			}
		}
		select {
		case <-done:
		case <-time.After(m.config.ForceCancelTimeout):
			m.logger.Warn("Sync jobs still running after forced cancellation")
		}
	}
	m.jobCancel()

	if err := m.engine.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down sync engine: %w", err)
	}
	m.logger.Info("Sync job manager stopped")
	return nil
}

// ---------------------------------------------------------------------------
// Queue polling
// ---------------------------------------------------------------------------

func (m *SyncJobManager) pollLoop(ctx context.Context) {
	defer m.loopWg.Done()

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

// pollOnce claims and dispatches at most one job. Claim failures are
// logged and retried on the next tick, never fatal.
func (m *SyncJobManager) pollOnce(ctx context.Context) {
	if m.slots.Full() {
		return
	}

	job, err := m.jobs.ClaimNext(ctx, m.config.WorkerID, m.config.ClaimLease)
	if err != nil {
		m.logger.Warn("Claiming next sync job failed", zap.Error(err))
		return
	}
	if job == nil {
		return
	}

	if !m.slots.TryAcquire(job.ID) {
		// Slot race between Full check and claim; put the job back.
		if err := m.jobs.Release(ctx, job.ID, 0); err != nil {
			m.logger.Warn("Releasing unclaimed sync job failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
		return
	}

	m.jobWg.Add(1)
	go m.runJob(m.jobCtx, job)
}

// runJob executes one claimed job and handles its retry disposition
func (m *SyncJobManager) runJob(ctx context.Context, job *integration.SyncJob) {
	defer m.jobWg.Done()
	defer m.slots.Release(job.ID)

	m.logger.Info("Running sync job",
		zap.String("job_id", job.ID.String()),
		zap.String("worker_id", m.config.WorkerID),
		zap.Int("attempt", job.Attempts+1),
	)

	if _, err := m.engine.ExecuteJob(ctx, job.ID); err != nil {
		m.handleFailure(ctx, job.ID, err)
	}
}

// handleFailure either requeues the job with backoff or, once attempts
// are exhausted, marks it failed and drops its queue entry.
func (m *SyncJobManager) handleFailure(ctx context.Context, jobID uuid.UUID, execErr error) {
	job, err := m.jobs.FindByID(ctx, jobID)
	if err != nil {
		m.logger.Error("Loading failed sync job for retry handling",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return
	}

	if job.Status.IsTerminal() {
		// Cancelled out from under us during shutdown.
		return
	}

	if job.AttemptsExhausted() {
		if err := job.Fail(execErr.Error()); err != nil {
			m.logger.Error("Marking sync job failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			return
		}
		if err := m.jobs.Update(ctx, job); err != nil {
			m.logger.Error("Persisting failed sync job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			return
		}
		if err := m.jobs.RemoveFromQueue(ctx, job.ID); err != nil {
			m.logger.Warn("Removing exhausted sync job from queue failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
		m.logger.Warn("Sync job failed permanently",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempts", job.Attempts),
			zap.String("error", execErr.Error()),
		)
		return
	}

	delay := job.Config.Retry.Delay(job.Attempts)
	if err := job.Requeue(); err != nil {
		m.logger.Error("Requeueing sync job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := m.jobs.Update(ctx, job); err != nil {
		m.logger.Error("Persisting requeued sync job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := m.jobs.Release(ctx, job.ID, delay); err != nil {
		m.logger.Error("Releasing sync job for retry",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}

	m.logger.Info("Sync job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempts", job.Attempts),
		zap.Int("max_attempts", job.Config.Retry.MaxAttempts),
		zap.Duration("retry_delay", delay),
	)
}

// ---------------------------------------------------------------------------
// Schedule sweep
// ---------------------------------------------------------------------------

func (m *SyncJobManager) scheduleLoop(ctx context.Context) {
	defer m.loopWg.Done()

	ticker := time.NewTicker(m.config.ScheduleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepSchedules(ctx, time.Now())
		}
	}
}

// sweepSchedules enqueues one job per due schedule. A broken schedule
// is logged and skipped; it never blocks the rest of the sweep.
func (m *SyncJobManager) sweepSchedules(ctx context.Context, now time.Time) {
	enabled, err := m.schedules.FindEnabled(ctx)
	if err != nil {
		m.logger.Warn("Loading enabled sync schedules failed", zap.Error(err))
		return
	}

	for i := range enabled {
		schedule := enabled[i]

		due, err := schedule.IsDue(now)
		if err != nil {
			m.logger.Warn("Evaluating sync schedule failed",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !due {
			continue
		}

		job, err := m.engine.CreateJob(ctx, schedule.TenantID, schedule.IntegrationID, integration.JobTypeScheduled, schedule.Config)
		if err != nil {
			m.logger.Warn("Creating scheduled sync job failed",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := m.schedules.MarkRun(ctx, schedule.ID, now); err != nil {
			m.logger.Warn("Recording schedule run failed",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err),
			)
		}

		m.logger.Info("Scheduled sync job enqueued",
			zap.String("schedule_id", schedule.ID.String()),
			zap.String("job_id", job.ID.String()),
		)
	}
}

// ---------------------------------------------------------------------------
// Stale lock sweep
// ---------------------------------------------------------------------------

func (m *SyncJobManager) staleLoop(ctx context.Context) {
	defer m.loopWg.Done()

	ticker := time.NewTicker(m.config.StaleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepStale(ctx, time.Now())
		}
	}
}

// sweepStale releases claims whose lease expired, making the jobs
// immediately runnable again.
func (m *SyncJobManager) sweepStale(ctx context.Context, now time.Time) {
	stale, err := m.jobs.FindStale(ctx, now)
	if err != nil {
		m.logger.Warn("Finding stale sync job claims failed", zap.Error(err))
		return
	}

	for _, jobID := range stale {
		if err := m.jobs.Release(ctx, jobID, 0); err != nil {
			m.logger.Warn("Releasing stale sync job claim failed",
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
			continue
		}
		m.logger.Info("Released stale sync job claim",
			zap.String("job_id", jobID.String()),
		)
	}
}

// ---------------------------------------------------------------------------
// Manual operations
// ---------------------------------------------------------------------------

// TriggerManualSync creates a manually triggered sync job
func (m *SyncJobManager) TriggerManualSync(ctx context.Context, tenantID, integrationID uuid.UUID, config integration.JobConfig) (*integration.SyncJob, error) {
	return m.engine.CreateJob(ctx, tenantID, integrationID, integration.JobTypeManual, config)
}

// RetryJob creates a fresh single-attempt job carrying the original
// job's configuration. The original job record is left untouched.
func (m *SyncJobManager) RetryJob(ctx context.Context, jobID uuid.UUID) (*integration.SyncJob, error) {
	original, err := m.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading sync job %s: %w", jobID, err)
	}
	return m.engine.CreateJob(ctx, original.TenantID, original.IntegrationID, integration.JobTypeRetry, original.RetryConfig())
}
