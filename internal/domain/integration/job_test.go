package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJobConfig() JobConfig {
	return JobConfig{
		EntityTypes: []EntityType{EntityTypeProduct},
		Mode:        SyncModeIncremental,
		BatchSize:   50,
		Retry:       DefaultRetryPolicy(),
	}
}

func TestNewSyncJob(t *testing.T) {
	job, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeManual, testJobConfig())
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Zero(t, job.Attempts)
	assert.NotEqual(t, uuid.Nil, job.ID)

	t.Run("rejects empty entity types", func(t *testing.T) {
		cfg := testJobConfig()
		cfg.EntityTypes = nil
		_, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeManual, cfg)
		assert.ErrorIs(t, err, ErrInvalidJobConfig)
	})

	t.Run("rejects unknown job type", func(t *testing.T) {
		_, err := NewSyncJob(uuid.New(), uuid.New(), "cron", testJobConfig())
		assert.ErrorIs(t, err, ErrInvalidJobConfig)
	})
}

func TestSyncJob_StateMachine(t *testing.T) {
	newJob := func() *SyncJob {
		job, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeScheduled, testJobConfig())
		require.NoError(t, err)
		return job
	}

	t.Run("pending to running to completed", func(t *testing.T) {
		job := newJob()
		require.NoError(t, job.Start())
		assert.Equal(t, JobStatusRunning, job.Status)
		assert.Equal(t, 1, job.Attempts)
		require.NoError(t, job.Complete(JobResult{TotalCount: 10, SyncedCount: 10}))
		assert.Equal(t, JobStatusCompleted, job.Status)
		require.NotNil(t, job.Result)
		assert.Equal(t, 10, job.Result.SyncedCount)
	})

	t.Run("running to failed", func(t *testing.T) {
		job := newJob()
		require.NoError(t, job.Start())
		require.NoError(t, job.Fail("platform timeout"))
		assert.Equal(t, JobStatusFailed, job.Status)
		assert.Equal(t, "platform timeout", job.Error)
	})

	t.Run("pending can be cancelled", func(t *testing.T) {
		job := newJob()
		require.NoError(t, job.Cancel())
		assert.Equal(t, JobStatusCancelled, job.Status)
	})

	t.Run("no transition leaves a terminal state", func(t *testing.T) {
		job := newJob()
		require.NoError(t, job.Start())
		require.NoError(t, job.Complete(JobResult{}))

		assert.ErrorIs(t, job.Start(), ErrInvalidJobTransition)
		assert.ErrorIs(t, job.Fail("x"), ErrInvalidJobTransition)
		assert.ErrorIs(t, job.Cancel(), ErrInvalidJobTransition)
		assert.ErrorIs(t, job.Requeue(), ErrInvalidJobTransition)
	})

	t.Run("requeue returns running job to pending", func(t *testing.T) {
		job := newJob()
		require.NoError(t, job.Start())
		require.NoError(t, job.Requeue())
		assert.Equal(t, JobStatusPending, job.Status)
		// Attempts are not reset by a requeue.
		assert.Equal(t, 1, job.Attempts)
	})
}

func TestRetryPolicy_Delay(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 60 * time.Second},
		{attempt: 2, want: 120 * time.Second},
		{attempt: 3, want: 240 * time.Second},
		{attempt: 4, want: 480 * time.Second},
		{attempt: 6, want: 1920 * time.Second},
		{attempt: 7, want: time.Hour},
		{attempt: 12, want: time.Hour},
		{attempt: 40, want: time.Hour},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Delay(tt.attempt), "attempt %d", tt.attempt)
	}

	t.Run("no backoff policy", func(t *testing.T) {
		assert.Zero(t, SingleAttemptPolicy().Delay(1))
	})
}

func TestSyncJob_AttemptsExhausted(t *testing.T) {
	job, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeScheduled, testJobConfig())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.False(t, job.AttemptsExhausted())
		require.NoError(t, job.Start())
		require.NoError(t, job.Requeue())
	}
	assert.True(t, job.AttemptsExhausted())
}

func TestSyncJob_RetryConfig(t *testing.T) {
	job, err := NewSyncJob(uuid.New(), uuid.New(), JobTypeScheduled, testJobConfig())
	require.NoError(t, err)

	cfg := job.RetryConfig()
	assert.Equal(t, SingleAttemptPolicy(), cfg.Retry)
	assert.Equal(t, job.Config.EntityTypes, cfg.EntityTypes)
	assert.Equal(t, job.Config.BatchSize, cfg.BatchSize)

	// Cloned slice, not shared backing array.
	cfg.EntityTypes[0] = EntityTypeOrder
	assert.Equal(t, EntityTypeProduct, job.Config.EntityTypes[0])
}
