package dto

import (
	"time"

	"github.com/commercehub/backend/internal/domain/integration"
)

// CreateSyncJobRequest triggers a manual sync run
type CreateSyncJobRequest struct {
	IntegrationID string   `json:"integration_id" binding:"required,uuid"`
	EntityTypes   []string `json:"entity_types" binding:"required,min=1,dive,oneof=product inventory price order"`
	Mode          string   `json:"mode" binding:"omitempty,oneof=full incremental"`
	BatchSize     int      `json:"batch_size" binding:"omitempty,min=1,max=500"`
	Priority      int      `json:"priority" binding:"omitempty,min=0,max=10"`
}

// ToJobConfig converts the request into a domain job config
func (r *CreateSyncJobRequest) ToJobConfig() integration.JobConfig {
	entityTypes := make([]integration.EntityType, len(r.EntityTypes))
	for i, entity := range r.EntityTypes {
		entityTypes[i] = integration.EntityType(entity)
	}

	mode := integration.SyncMode(r.Mode)
	if r.Mode == "" {
		mode = integration.SyncModeIncremental
	}
	batchSize := r.BatchSize
	if batchSize == 0 {
		batchSize = 50
	}

	return integration.JobConfig{
		EntityTypes: entityTypes,
		Mode:        mode,
		BatchSize:   batchSize,
		Priority:    r.Priority,
		Retry:       integration.DefaultRetryPolicy(),
	}
}

// SyncJobResultResponse summarizes a completed run
type SyncJobResultResponse struct {
	TotalCount    int `json:"total_count"`
	SyncedCount   int `json:"synced_count"`
	ConflictCount int `json:"conflict_count"`
	ResolvedCount int `json:"resolved_count"`
	FailedCount   int `json:"failed_count"`
}

// SyncJobResponse is the API view of a sync job
type SyncJobResponse struct {
	ID            string                 `json:"id"`
	TenantID      string                 `json:"tenant_id"`
	IntegrationID string                 `json:"integration_id"`
	Type          string                 `json:"type"`
	Status        string                 `json:"status"`
	EntityTypes   []string               `json:"entity_types"`
	Mode          string                 `json:"mode"`
	Attempts      int                    `json:"attempts"`
	Result        *SyncJobResultResponse `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// NewSyncJobResponse maps a domain job to the API shape
func NewSyncJobResponse(job *integration.SyncJob) SyncJobResponse {
	entityTypes := make([]string, len(job.Config.EntityTypes))
	for i, entity := range job.Config.EntityTypes {
		entityTypes[i] = entity.String()
	}

	resp := SyncJobResponse{
		ID:            job.ID.String(),
		TenantID:      job.TenantID.String(),
		IntegrationID: job.IntegrationID.String(),
		Type:          job.Type.String(),
		Status:        job.Status.String(),
		EntityTypes:   entityTypes,
		Mode:          string(job.Config.Mode),
		Attempts:      job.Attempts,
		Error:         job.Error,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
	if job.Result != nil {
		resp.Result = &SyncJobResultResponse{
			TotalCount:    job.Result.TotalCount,
			SyncedCount:   job.Result.SyncedCount,
			ConflictCount: job.Result.ConflictCount,
			ResolvedCount: job.Result.ResolvedCount,
			FailedCount:   job.Result.FailedCount,
		}
	}
	return resp
}
