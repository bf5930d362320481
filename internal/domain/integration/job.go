package integration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Job Errors
// ---------------------------------------------------------------------------

var (
	// ErrJobNotFound is returned when a sync job does not exist
	ErrJobNotFound = errors.New("integration: sync job not found")
	// ErrInvalidJobTransition is returned for transitions out of a terminal state
	ErrInvalidJobTransition = errors.New("integration: invalid job status transition")
	// ErrInvalidJobConfig is returned when a job config fails validation
	ErrInvalidJobConfig = errors.New("integration: invalid job config")
	// ErrJobClaimFailed is returned when the queue cannot claim a job
	ErrJobClaimFailed = errors.New("integration: job claim failed")
	// ErrEngineShutdown is returned by the engine after shutdown
	ErrEngineShutdown = errors.New("integration: sync engine is shut down")
)

// ---------------------------------------------------------------------------
// Job Status / Type
// ---------------------------------------------------------------------------

// JobStatus represents the lifecycle state of a sync job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsValid returns true if the job status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states with no outgoing transitions
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// JobType represents how a sync job came to exist
type JobType string

const (
	JobTypeManual    JobType = "manual"
	JobTypeScheduled JobType = "scheduled"
	JobTypeWebhook   JobType = "webhook"
	JobTypeRetry     JobType = "retry"
)

// IsValid returns true if the job type is valid
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeManual, JobTypeScheduled, JobTypeWebhook, JobTypeRetry:
		return true
	default:
		return false
	}
}

// String returns the string representation of JobType
func (t JobType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Entity Types / Sync Mode
// ---------------------------------------------------------------------------

// EntityType is a kind of record a sync job reconciles
type EntityType string

const (
	EntityTypeProduct   EntityType = "product"
	EntityTypeInventory EntityType = "inventory"
	EntityTypePrice     EntityType = "price"
	EntityTypeOrder     EntityType = "order"
)

// IsValid returns true if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeProduct, EntityTypeInventory, EntityTypePrice, EntityTypeOrder:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (t EntityType) String() string {
	return string(t)
}

// SyncMode determines the scope of a sync pass
type SyncMode string

const (
	// SyncModeFull reconciles every mapped entity
	SyncModeFull SyncMode = "full"
	// SyncModeIncremental reconciles entities changed since the last run
	SyncModeIncremental SyncMode = "incremental"
)

// ---------------------------------------------------------------------------
// Retry Policy
// ---------------------------------------------------------------------------

const (
	// retryBaseDelay is the backoff delay after the first failed attempt
	retryBaseDelay = 60 * time.Second
	// retryMaxDelay caps the exponential backoff
	retryMaxDelay = time.Hour
)

// RetryPolicy bounds how a failed job is retried
type RetryPolicy struct {
	MaxAttempts int  `json:"max_attempts"`
	Backoff     bool `json:"backoff"`
}

// DefaultRetryPolicy returns the standard three-attempt backoff policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: true}
}

// SingleAttemptPolicy returns the policy layered onto retry-type jobs:
// one attempt, no backoff.
func SingleAttemptPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Backoff: false}
}

// Delay returns the backoff delay before the given attempt number
// (1-based). Without backoff the delay is always zero.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if !p.Backoff || attempt <= 0 {
		return 0
	}
	delay := retryBaseDelay * time.Duration(1<<(attempt-1))
	if delay > retryMaxDelay || delay <= 0 {
		return retryMaxDelay
	}
	return delay
}

// ---------------------------------------------------------------------------
// JobConfig / SyncJob
// ---------------------------------------------------------------------------

// JobConfig is the structured configuration a sync job executes with
type JobConfig struct {
	EntityTypes []EntityType `json:"entity_types"`
	Mode        SyncMode     `json:"mode"`
	BatchSize   int          `json:"batch_size"`
	Priority    int          `json:"priority"`
	Retry       RetryPolicy  `json:"retry"`
}

// Validate checks the job config
func (c *JobConfig) Validate() error {
	if len(c.EntityTypes) == 0 {
		return ErrInvalidJobConfig
	}
	if c.BatchSize <= 0 {
		return ErrInvalidJobConfig
	}
	if c.Retry.MaxAttempts <= 0 {
		return ErrInvalidJobConfig
	}
	return nil
}

// JobResult summarizes one sync job execution
type JobResult struct {
	TotalCount     int `json:"total_count"`
	SyncedCount    int `json:"synced_count"`
	ConflictCount  int `json:"conflict_count"`
	ResolvedCount  int `json:"resolved_count"`
	FailedCount    int `json:"failed_count"`
}

// SyncJob is one unit of reconciliation work against a platform
// integration. Status transitions follow
// pending -> running -> {completed, failed, cancelled}; terminal states
// have no outgoing transitions.
type SyncJob struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	IntegrationID uuid.UUID
	Type          JobType
	Status        JobStatus
	Config        JobConfig
	Attempts      int
	Result        *JobResult
	Error         string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSyncJob creates a pending sync job
func NewSyncJob(tenantID, integrationID uuid.UUID, jobType JobType, config JobConfig) (*SyncJob, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !jobType.IsValid() {
		return nil, ErrInvalidJobConfig
	}
	now := time.Now()
	return &SyncJob{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		Type:          jobType,
		Status:        JobStatusPending,
		Config:        config,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Start transitions the job to running
func (j *SyncJob) Start() error {
	if j.Status != JobStatusPending {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
	j.Attempts++
	return nil
}

// Complete transitions the job to completed with its result summary
func (j *SyncJob) Complete(result JobResult) error {
	if j.Status != JobStatusRunning {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Result = &result
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail transitions the job to failed
func (j *SyncJob) Fail(errMsg string) error {
	if j.Status.IsTerminal() {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.Error = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Cancel transitions the job to cancelled
func (j *SyncJob) Cancel() error {
	if j.Status.IsTerminal() {
		return ErrInvalidJobTransition
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Requeue returns a running job to pending for a later retry attempt
func (j *SyncJob) Requeue() error {
	if j.Status != JobStatusRunning {
		return ErrInvalidJobTransition
	}
	j.Status = JobStatusPending
	j.UpdatedAt = time.Now()
	return nil
}

// AttemptsExhausted returns true once the retry policy allows no further runs
func (j *SyncJob) AttemptsExhausted() bool {
	return j.Attempts >= j.Config.Retry.MaxAttempts
}

// RetryConfig clones this job's config with the single-attempt retry
// policy layered on top, for use by manually retried jobs.
func (j *SyncJob) RetryConfig() JobConfig {
	cfg := j.Config
	cfg.EntityTypes = make([]EntityType, len(j.Config.EntityTypes))
	copy(cfg.EntityTypes, j.Config.EntityTypes)
	cfg.Retry = SingleAttemptPolicy()
	return cfg
}
