package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/integration"
)

// SyncJobModel is the persistence model for the SyncJob domain entity.
// The queue columns (Queued, LockedBy, LockedUntil, NextRunAt, Priority)
// drive the storage-level claim protocol; they never surface in the
// domain entity.
type SyncJobModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID             `gorm:"type:uuid;not null;index:idx_sync_jobs_tenant,priority:1"`
	IntegrationID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Type          integration.JobType   `gorm:"type:varchar(20);not null"`
	Status        integration.JobStatus `gorm:"type:varchar(20);not null;index"`
	ConfigJSON    string                `gorm:"type:jsonb;column:config"`
	Attempts      int                   `gorm:"not null;default:0"`
	ResultJSON    string                `gorm:"type:jsonb;column:result"`
	Error         string                `gorm:"type:text"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Queued        bool                  `gorm:"not null;default:false;index"`
	Priority      int                   `gorm:"not null;default:0;index"`
	LockedBy      string                `gorm:"type:varchar(64)"`
	LockedUntil   *time.Time            `gorm:"index"`
	NextRunAt     *time.Time            `gorm:"index"`
	CreatedAt     time.Time             `gorm:"not null"`
	UpdatedAt     time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob entity.
func (m *SyncJobModel) ToDomain() *integration.SyncJob {
	job := &integration.SyncJob{
		ID:            m.ID,
		TenantID:      m.TenantID,
		IntegrationID: m.IntegrationID,
		Type:          m.Type,
		Status:        m.Status,
		Attempts:      m.Attempts,
		Error:         m.Error,
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}

	if m.ConfigJSON != "" {
		var config integration.JobConfig
		if err := json.Unmarshal([]byte(m.ConfigJSON), &config); err == nil {
			job.Config = config
		}
	}
	if m.ResultJSON != "" {
		var result integration.JobResult
		if err := json.Unmarshal([]byte(m.ResultJSON), &result); err == nil {
			job.Result = &result
		}
	}

	return job
}

// FromDomain populates the persistence model from a domain SyncJob entity.
// Queue columns are left untouched; the repository manages them.
func (m *SyncJobModel) FromDomain(j *integration.SyncJob) {
	m.ID = j.ID
	m.TenantID = j.TenantID
	m.IntegrationID = j.IntegrationID
	m.Type = j.Type
	m.Status = j.Status
	m.Attempts = j.Attempts
	m.Error = j.Error
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
	m.Priority = j.Config.Priority
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt

	if jsonBytes, err := json.Marshal(j.Config); err == nil {
		m.ConfigJSON = string(jsonBytes)
	}
	if j.Result != nil {
		if jsonBytes, err := json.Marshal(j.Result); err == nil {
			m.ResultJSON = string(jsonBytes)
		}
	} else {
		m.ResultJSON = ""
	}
}

// SyncScheduleModel is the persistence model for the SyncSchedule domain entity.
type SyncScheduleModel struct {
	ID              uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	IntegrationID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	Frequency       integration.Frequency `gorm:"type:varchar(30);not null"`
	ActiveHoursJSON string                `gorm:"type:jsonb;column:active_hours"`
	ConfigJSON      string                `gorm:"type:jsonb;column:config"`
	Enabled         bool                  `gorm:"not null;default:true;index"`
	LastRunAt       *time.Time
	CreatedAt       time.Time             `gorm:"not null"`
	UpdatedAt       time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncScheduleModel) TableName() string {
	return "sync_schedules"
}

// ToDomain converts the persistence model to a domain SyncSchedule entity.
func (m *SyncScheduleModel) ToDomain() *integration.SyncSchedule {
	schedule := &integration.SyncSchedule{
		ID:            m.ID,
		TenantID:      m.TenantID,
		IntegrationID: m.IntegrationID,
		Frequency:     m.Frequency,
		Enabled:       m.Enabled,
		LastRunAt:     m.LastRunAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}

	if m.ActiveHoursJSON != "" {
		var hours integration.ActiveHours
		if err := json.Unmarshal([]byte(m.ActiveHoursJSON), &hours); err == nil {
			schedule.ActiveHours = &hours
		}
	}
	if m.ConfigJSON != "" {
		var config integration.JobConfig
		if err := json.Unmarshal([]byte(m.ConfigJSON), &config); err == nil {
			schedule.Config = config
		}
	}

	return schedule
}

// FromDomain populates the persistence model from a domain SyncSchedule entity.
func (m *SyncScheduleModel) FromDomain(s *integration.SyncSchedule) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.IntegrationID = s.IntegrationID
	m.Frequency = s.Frequency
	m.Enabled = s.Enabled
	m.LastRunAt = s.LastRunAt
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt

	if s.ActiveHours != nil {
		if jsonBytes, err := json.Marshal(s.ActiveHours); err == nil {
			m.ActiveHoursJSON = string(jsonBytes)
		}
	} else {
		m.ActiveHoursJSON = ""
	}
	if jsonBytes, err := json.Marshal(s.Config); err == nil {
		m.ConfigJSON = string(jsonBytes)
	}
}

// ConflictResolutionModel is the persistence model for the immutable
// ConflictResolution history record. Values are stored as JSON so any
// field type survives the round trip.
type ConflictResolutionModel struct {
	ID                uuid.UUID                      `gorm:"type:uuid;primary_key"`
	JobID             uuid.UUID                      `gorm:"type:uuid;not null;index"`
	ConflictID        string                         `gorm:"type:varchar(255);not null;index"`
	Field             string                         `gorm:"type:varchar(100);not null"`
	LocalValueJSON    string                         `gorm:"type:jsonb;column:local_value"`
	ExternalValueJSON string                         `gorm:"type:jsonb;column:external_value"`
	Strategy          integration.ResolutionStrategy `gorm:"type:varchar(20);not null"`
	ResolvedValueJSON string                         `gorm:"type:jsonb;column:resolved_value"`
	ResolvedAt        time.Time                      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ConflictResolutionModel) TableName() string {
	return "conflict_resolutions"
}

// FromDomain populates the persistence model from a domain ConflictResolution.
func (m *ConflictResolutionModel) FromDomain(r *integration.ConflictResolution) {
	m.ID = r.ID
	m.JobID = r.JobID
	m.ConflictID = r.ConflictID
	m.Field = r.Field
	m.Strategy = r.Strategy
	m.ResolvedAt = r.ResolvedAt

	m.LocalValueJSON = marshalValue(r.LocalValue)
	m.ExternalValueJSON = marshalValue(r.ExternalValue)
	m.ResolvedValueJSON = marshalValue(r.ResolvedValue)
}

func marshalValue(v any) string {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(jsonBytes)
}
