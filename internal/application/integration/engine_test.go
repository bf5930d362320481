package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/integration"
)

type fakeJobRepository struct {
	jobs      map[uuid.UUID]*integration.SyncJob
	dequeued  []uuid.UUID
	createErr error
	updateErr error
}

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{jobs: make(map[uuid.UUID]*integration.SyncJob)}
}

func (f *fakeJobRepository) Create(ctx context.Context, job *integration.SyncJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepository) Update(ctx context.Context, job *integration.SyncJob) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, integration.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobRepository) ClaimNext(ctx context.Context, workerID string, lease time.Duration) (*integration.SyncJob, error) {
	return nil, nil
}

func (f *fakeJobRepository) Release(ctx context.Context, jobID uuid.UUID, retryDelay time.Duration) error {
	return nil
}

func (f *fakeJobRepository) RemoveFromQueue(ctx context.Context, jobID uuid.UUID) error {
	f.dequeued = append(f.dequeued, jobID)
	return nil
}

func (f *fakeJobRepository) FindStale(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

type fakePlatformClient struct {
	snapshots map[integration.EntityType][]integration.EntitySnapshot
	fetchErr  error
	pushed    []string
}

func (f *fakePlatformClient) FetchSnapshots(ctx context.Context, integrationID uuid.UUID, entity integration.EntityType, batchSize int) ([]integration.EntitySnapshot, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshots[entity], nil
}

func (f *fakePlatformClient) PushUpdate(ctx context.Context, integrationID uuid.UUID, entity integration.EntityType, entityID string, fields map[string]any) error {
	f.pushed = append(f.pushed, entityID)
	return nil
}

type fakeLocalCatalog struct {
	snapshots map[string]*integration.EntitySnapshot
	applied   map[string]map[string]any
	findErr   error
	applyErr  error
}

func newFakeLocalCatalog() *fakeLocalCatalog {
	return &fakeLocalCatalog{
		snapshots: make(map[string]*integration.EntitySnapshot),
		applied:   make(map[string]map[string]any),
	}
}

func (f *fakeLocalCatalog) FindSnapshot(ctx context.Context, tenantID uuid.UUID, entity integration.EntityType, entityID string) (*integration.EntitySnapshot, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.snapshots[entityID], nil
}

func (f *fakeLocalCatalog) ApplyResolution(ctx context.Context, tenantID uuid.UUID, entity integration.EntityType, entityID string, fields map[string]any) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied[entityID] = fields
	return nil
}

func productConfig() integration.JobConfig {
	return integration.JobConfig{
		EntityTypes: []integration.EntityType{integration.EntityTypeProduct},
		Mode:        integration.SyncModeFull,
		BatchSize:   50,
		Retry:       integration.DefaultRetryPolicy(),
	}
}

func newTestSyncService(
	jobs *fakeJobRepository,
	platform *fakePlatformClient,
	catalog *fakeLocalCatalog,
	strategy integration.ResolutionStrategy,
) *SyncService {
	conflicts := NewConflictResolutionService(&fakeResolutionRepository{}, zap.NewNop())
	return NewSyncService(jobs, platform, catalog, conflicts, strategy, zap.NewNop())
}

func TestSyncService_CreateJob(t *testing.T) {
	jobs := newFakeJobRepository()
	svc := newTestSyncService(jobs, &fakePlatformClient{}, newFakeLocalCatalog(), integration.StrategyExternalWins)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	assert.Equal(t, integration.JobStatusPending, job.Status)
	assert.Contains(t, jobs.jobs, job.ID)
}

func TestSyncService_CreateJob_InvalidConfig(t *testing.T) {
	svc := newTestSyncService(newFakeJobRepository(), &fakePlatformClient{}, newFakeLocalCatalog(), integration.StrategyExternalWins)

	_, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, integration.JobConfig{})
	assert.ErrorIs(t, err, integration.ErrInvalidJobConfig)
}

func TestSyncService_ExecuteJob_NoConflicts(t *testing.T) {
	jobs := newFakeJobRepository()
	catalog := newFakeLocalCatalog()
	snapshot := integration.EntitySnapshot{
		EntityID: "prod-1",
		Fields:   map[string]any{"name": "Widget", "quantity": 10, "price": decimal.NewFromInt(20)},
	}
	catalog.snapshots["prod-1"] = &snapshot
	platform := &fakePlatformClient{
		snapshots: map[integration.EntityType][]integration.EntitySnapshot{
			integration.EntityTypeProduct: {snapshot},
		},
	}
	svc := newTestSyncService(jobs, platform, catalog, integration.StrategyExternalWins)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	result, err := svc.ExecuteJob(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, 1, result.SyncedCount)
	assert.Zero(t, result.ConflictCount)
	assert.Equal(t, integration.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, jobs.dequeued, job.ID)
}

func TestSyncService_ExecuteJob_ResolvesAndApplies(t *testing.T) {
	jobs := newFakeJobRepository()
	catalog := newFakeLocalCatalog()
	catalog.snapshots["prod-1"] = &integration.EntitySnapshot{
		EntityID: "prod-1",
		Fields:   map[string]any{"name": "Widget", "quantity": 10},
	}
	platform := &fakePlatformClient{
		snapshots: map[integration.EntityType][]integration.EntitySnapshot{
			integration.EntityTypeProduct: {{
				EntityID: "prod-1",
				Fields:   map[string]any{"name": "Widget v2", "quantity": 10},
			}},
		},
	}
	svc := newTestSyncService(jobs, platform, catalog, integration.StrategyExternalWins)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	result, err := svc.ExecuteJob(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ConflictCount)
	assert.Equal(t, 1, result.ResolvedCount)
	assert.Equal(t, 1, result.SyncedCount)
	require.Contains(t, catalog.applied, "prod-1")
	assert.Equal(t, "Widget v2", catalog.applied["prod-1"]["name"])
}

func TestSyncService_ExecuteJob_UnmappedEntitySkipped(t *testing.T) {
	jobs := newFakeJobRepository()
	platform := &fakePlatformClient{
		snapshots: map[integration.EntityType][]integration.EntitySnapshot{
			integration.EntityTypeProduct: {{EntityID: "unknown", Fields: map[string]any{"name": "x"}}},
		},
	}
	svc := newTestSyncService(jobs, platform, newFakeLocalCatalog(), integration.StrategyExternalWins)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	result, err := svc.ExecuteJob(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalCount)
	assert.Zero(t, result.SyncedCount)
	assert.Zero(t, result.FailedCount)
}

func TestSyncService_ExecuteJob_FetchFailureLeavesJobRunning(t *testing.T) {
	jobs := newFakeJobRepository()
	platform := &fakePlatformClient{fetchErr: errors.New("platform unavailable")}
	svc := newTestSyncService(jobs, platform, newFakeLocalCatalog(), integration.StrategyExternalWins)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	_, err = svc.ExecuteJob(context.Background(), job.ID)
	require.Error(t, err)

	assert.Equal(t, integration.JobStatusRunning, job.Status)
	assert.NotContains(t, jobs.dequeued, job.ID)
}

func TestSyncService_ExecuteJob_ManualStrategyCountsFailures(t *testing.T) {
	jobs := newFakeJobRepository()
	catalog := newFakeLocalCatalog()
	catalog.snapshots["prod-1"] = &integration.EntitySnapshot{
		EntityID: "prod-1",
		Fields:   map[string]any{"name": "Widget"},
	}
	platform := &fakePlatformClient{
		snapshots: map[integration.EntityType][]integration.EntitySnapshot{
			integration.EntityTypeProduct: {{
				EntityID: "prod-1",
				Fields:   map[string]any{"name": "Widget v2"},
			}},
		},
	}
	svc := newTestSyncService(jobs, platform, catalog, integration.StrategyManual)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	result, err := svc.ExecuteJob(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ConflictCount)
	assert.Zero(t, result.ResolvedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Empty(t, catalog.applied)
}

func TestSyncService_ExecuteJob_NotFound(t *testing.T) {
	svc := newTestSyncService(newFakeJobRepository(), &fakePlatformClient{}, newFakeLocalCatalog(), integration.StrategyExternalWins)

	_, err := svc.ExecuteJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, integration.ErrJobNotFound)
}

func TestSyncService_CancelJob(t *testing.T) {
	jobs := newFakeJobRepository()
	svc := newTestSyncService(jobs, &fakePlatformClient{}, newFakeLocalCatalog(), integration.StrategyExternalWins)

	job, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	require.NoError(t, err)

	require.NoError(t, svc.CancelJob(context.Background(), job.ID))
	assert.Equal(t, integration.JobStatusCancelled, job.Status)
	assert.Contains(t, jobs.dequeued, job.ID)

	assert.ErrorIs(t, svc.CancelJob(context.Background(), job.ID), integration.ErrInvalidJobTransition)
}

func TestSyncService_ShutdownRejectsNewWork(t *testing.T) {
	svc := newTestSyncService(newFakeJobRepository(), &fakePlatformClient{}, newFakeLocalCatalog(), integration.StrategyExternalWins)

	require.NoError(t, svc.Shutdown(context.Background()))

	_, err := svc.CreateJob(context.Background(), uuid.New(), uuid.New(), integration.JobTypeManual, productConfig())
	assert.ErrorIs(t, err, integration.ErrEngineShutdown)

	_, err = svc.ExecuteJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, integration.ErrEngineShutdown)
}
