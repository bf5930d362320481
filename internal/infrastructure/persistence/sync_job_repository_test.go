package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/integration"
)

func newTestJob(t *testing.T) *integration.SyncJob {
	t.Helper()
	job, err := integration.NewSyncJob(uuid.New(), uuid.New(), integration.JobTypeManual, integration.JobConfig{
		EntityTypes: []integration.EntityType{integration.EntityTypeProduct},
		Mode:        integration.SyncModeFull,
		BatchSize:   50,
		Priority:    3,
		Retry:       integration.DefaultRetryPolicy(),
	})
	require.NoError(t, err)
	return job
}

func TestGormSyncJobRepository_Create(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSyncJobRepository(gormDB)

	mock.ExpectExec(`INSERT INTO "sync_jobs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), newTestJob(t))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSyncJobRepository_FindByID(t *testing.T) {
	t.Run("round-trips config and result through JSON columns", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		jobID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "integration_id", "type", "status", "config",
			"attempts", "result", "error", "created_at", "updated_at",
		}).AddRow(jobID, uuid.New(), uuid.New(), "manual", "completed",
			`{"entity_types":["product"],"mode":"full","batch_size":50,"priority":3,"retry":{"max_attempts":3,"backoff":true}}`,
			1,
			`{"total_count":10,"synced_count":9,"conflict_count":2,"resolved_count":1,"failed_count":1}`,
			"", now, now)

		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)

		job, err := repo.FindByID(context.Background(), jobID)

		require.NoError(t, err)
		assert.Equal(t, integration.JobStatusCompleted, job.Status)
		assert.Equal(t, []integration.EntityType{integration.EntityTypeProduct}, job.Config.EntityTypes)
		assert.Equal(t, 3, job.Config.Priority)
		require.NotNil(t, job.Result)
		assert.Equal(t, 10, job.Result.TotalCount)
		assert.Equal(t, 1, job.Result.FailedCount)
	})

	t.Run("missing job maps to domain error", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		jobID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE id = \$1`).
			WithArgs(jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), jobID)

		assert.ErrorIs(t, err, integration.ErrJobNotFound)
	})
}

func TestGormSyncJobRepository_ClaimNext(t *testing.T) {
	t.Run("claims a runnable job", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		jobID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "integration_id", "type", "status", "config",
			"attempts", "created_at", "updated_at",
		}).AddRow(jobID, uuid.New(), uuid.New(), "scheduled", "pending",
			`{"entity_types":["inventory"],"mode":"incremental","batch_size":25,"retry":{"max_attempts":3,"backoff":true}}`,
			0, now, now)

		mock.ExpectQuery(`UPDATE sync_jobs`).
			WithArgs("worker-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
				integration.JobStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(rows)

		job, err := repo.ClaimNext(context.Background(), "worker-1", time.Minute)

		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, jobID, job.ID)
		assert.Equal(t, integration.JobStatusPending, job.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty queue yields nil without error", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		mock.ExpectQuery(`UPDATE sync_jobs`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		job, err := repo.ClaimNext(context.Background(), "worker-1", time.Minute)

		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("storage failure maps to claim error", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		mock.ExpectQuery(`UPDATE sync_jobs`).
			WillReturnError(gorm.ErrInvalidTransaction)

		_, err := repo.ClaimNext(context.Background(), "worker-1", time.Minute)

		assert.ErrorIs(t, err, integration.ErrJobClaimFailed)
	})
}

func TestGormSyncJobRepository_ReleaseAndRemove(t *testing.T) {
	t.Run("release sets retry delay", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		jobID := uuid.New()
		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Release(context.Background(), jobID, time.Minute)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("release returns a running job to pending", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		jobID := uuid.New()
		// A worker that died mid-run leaves the job in running state;
		// the release must flip it back so ClaimNext can match it.
		mock.ExpectExec(`UPDATE "sync_jobs" SET .*"status"=CASE WHEN status = \$4 THEN \$5 ELSE status END`).
			WithArgs("", nil, sqlmock.AnyArg(),
				string(integration.JobStatusRunning), string(integration.JobStatusPending),
				sqlmock.AnyArg(), jobID, true).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Release(context.Background(), jobID, 0)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removing a missing queue entry is a no-op", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncJobRepository(gormDB)

		mock.ExpectExec(`UPDATE "sync_jobs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RemoveFromQueue(context.Background(), uuid.New())

		require.NoError(t, err)
	})
}

func TestGormSyncJobRepository_FindStale(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSyncJobRepository(gormDB)

	staleID := uuid.New()
	mock.ExpectQuery(`SELECT "id" FROM "sync_jobs" WHERE queued = \$1 AND locked_until IS NOT NULL AND locked_until < \$2`).
		WithArgs(true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(staleID))

	ids, err := repo.FindStale(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{staleID}, ids)
}

func TestGormScheduleRepository_FindEnabled(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormScheduleRepository(gormDB)

	scheduleID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "integration_id", "frequency", "active_hours", "config",
		"enabled", "last_run_at", "created_at", "updated_at",
	}).AddRow(scheduleID, uuid.New(), uuid.New(), "hourly",
		`{"start_hour":8,"start_minute":0,"end_hour":20,"end_minute":0,"timezone":"UTC"}`,
		`{"entity_types":["price"],"mode":"incremental","batch_size":100,"retry":{"max_attempts":3,"backoff":true}}`,
		true, nil, now, now)

	mock.ExpectQuery(`SELECT \* FROM "sync_schedules" WHERE enabled = \$1 ORDER BY created_at ASC`).
		WithArgs(true).
		WillReturnRows(rows)

	schedules, err := repo.FindEnabled(context.Background())

	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, integration.FrequencyHourly, schedules[0].Frequency)
	require.NotNil(t, schedules[0].ActiveHours)
	assert.Equal(t, 8, schedules[0].ActiveHours.StartHour)
	assert.Nil(t, schedules[0].LastRunAt)
}

func TestGormResolutionRepository_Save(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormResolutionRepository(gormDB)

	mock.ExpectExec(`INSERT INTO "conflict_resolutions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &integration.ConflictResolution{
		ID:            uuid.New(),
		JobID:         uuid.New(),
		ConflictID:    "conflict:prod-1:price",
		Field:         "price",
		LocalValue:    100,
		ExternalValue: 120,
		Strategy:      integration.StrategyMerge,
		ResolvedValue: 120,
		ResolvedAt:    time.Now(),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
