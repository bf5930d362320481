package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/integration"
	"github.com/commercehub/backend/internal/infrastructure/scheduler"
	"github.com/commercehub/backend/internal/interfaces/http/dto"
	"github.com/commercehub/backend/internal/interfaces/http/middleware"
)

// SyncHandler serves sync job operations
type SyncHandler struct {
	BaseHandler
	manager *scheduler.SyncJobManager
	jobs    integration.JobRepository
}

// NewSyncHandler creates a sync handler
func NewSyncHandler(manager *scheduler.SyncJobManager, jobs integration.JobRepository) *SyncHandler {
	return &SyncHandler{manager: manager, jobs: jobs}
}

// CreateJob enqueues a manual sync job
// POST /api/v1/sync/jobs
func (h *SyncHandler) CreateJob(c *gin.Context) {
	var req dto.CreateSyncJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	integrationID, err := uuid.Parse(req.IntegrationID)
	if err != nil {
		h.BadRequest(c, "integration_id must be a UUID")
		return
	}

	tenantID := middleware.GetTenantID(c)
	job, err := h.manager.TriggerManualSync(c.Request.Context(), tenantID, integrationID, req.ToJobConfig())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewSyncJobResponse(job))
}

// GetJob returns one sync job
// GET /api/v1/sync/jobs/:id
func (h *SyncHandler) GetJob(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.ValidationError(c, err)
		return
	}
	jobID, err := uuid.Parse(uri.ID)
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	job, err := h.jobs.FindByID(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if job.TenantID != middleware.GetTenantID(c) {
		h.NotFound(c, integration.ErrJobNotFound.Error())
		return
	}

	h.Success(c, dto.NewSyncJobResponse(job))
}

// RetryJob enqueues a fresh single-attempt run of a failed job
// POST /api/v1/sync/jobs/:id/retry
func (h *SyncHandler) RetryJob(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.ValidationError(c, err)
		return
	}
	jobID, err := uuid.Parse(uri.ID)
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	source, err := h.jobs.FindByID(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if source.TenantID != middleware.GetTenantID(c) {
		h.NotFound(c, integration.ErrJobNotFound.Error())
		return
	}

	job, err := h.manager.RetryJob(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewSyncJobResponse(job))
}
