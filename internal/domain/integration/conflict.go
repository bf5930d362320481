package integration

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Conflict Errors
// ---------------------------------------------------------------------------

var (
	// ErrManualResolutionRequired is returned when a conflict can only be
	// resolved by an operator
	ErrManualResolutionRequired = errors.New("integration: manual resolution required")
	// ErrUnknownStrategy is returned for unrecognized resolution strategies
	ErrUnknownStrategy = errors.New("integration: unknown resolution strategy")
)

// ---------------------------------------------------------------------------
// Conflict Types
// ---------------------------------------------------------------------------

// ConflictType classifies a detected difference
type ConflictType string

const (
	// ConflictTypeDataMismatch is a plain field-value difference
	ConflictTypeDataMismatch ConflictType = "data_mismatch"
	// ConflictTypeUpdateConflict marks both sides updated near the same time
	ConflictTypeUpdateConflict ConflictType = "update_conflict"
)

// IsValid returns true if the conflict type is valid
func (t ConflictType) IsValid() bool {
	switch t {
	case ConflictTypeDataMismatch, ConflictTypeUpdateConflict:
		return true
	default:
		return false
	}
}

// String returns the string representation of ConflictType
func (t ConflictType) String() string {
	return string(t)
}

// ResolutionStrategy selects how detected conflicts are resolved
type ResolutionStrategy string

const (
	StrategyLocalWins    ResolutionStrategy = "local_wins"
	StrategyExternalWins ResolutionStrategy = "external_wins"
	StrategyMerge        ResolutionStrategy = "merge"
	StrategyManual       ResolutionStrategy = "manual"
)

// IsValid returns true if the strategy is valid
func (s ResolutionStrategy) IsValid() bool {
	switch s {
	case StrategyLocalWins, StrategyExternalWins, StrategyMerge, StrategyManual:
		return true
	default:
		return false
	}
}

// String returns the string representation of ResolutionStrategy
func (s ResolutionStrategy) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncConflict
// ---------------------------------------------------------------------------

// SyncConflict is one detected difference between a local and an
// external snapshot of the same entity. Conflicts are immutable once
// detected; resolution produces a new value, never a mutation.
type SyncConflict struct {
	ID            string       `json:"id"`
	Type          ConflictType `json:"type"`
	EntityID      string       `json:"entity_id"`
	Field         string       `json:"field"`
	LocalValue    any          `json:"local_value"`
	ExternalValue any          `json:"external_value"`
	Description   string       `json:"description"`
}

// NewFieldConflict builds a data-mismatch conflict with a stable,
// field-scoped id.
func NewFieldConflict(entityID, field string, local, external any) SyncConflict {
	return SyncConflict{
		ID:            fmt.Sprintf("conflict:%s:%s", entityID, field),
		Type:          ConflictTypeDataMismatch,
		EntityID:      entityID,
		Field:         field,
		LocalValue:    local,
		ExternalValue: external,
		Description:   fmt.Sprintf("field %q differs between local and external", field),
	}
}

// NewUpdateConflict builds an update-timestamp conflict
func NewUpdateConflict(entityID string, local, external time.Time) SyncConflict {
	return SyncConflict{
		ID:            fmt.Sprintf("conflict:%s:updated_at", entityID),
		Type:          ConflictTypeUpdateConflict,
		EntityID:      entityID,
		Field:         "updated_at",
		LocalValue:    local,
		ExternalValue: external,
		Description:   "both sides were updated recently",
	}
}

// ---------------------------------------------------------------------------
// EntitySnapshot
// ---------------------------------------------------------------------------

// EntitySnapshot is a comparable view of one entity on one side of a
// sync. Fields absent from the map are skipped during detection.
type EntitySnapshot struct {
	EntityID  string         `json:"entity_id"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// ---------------------------------------------------------------------------
// ConflictResolution
// ---------------------------------------------------------------------------

// ConflictResolution is the immutable history record of one resolved
// conflict.
type ConflictResolution struct {
	ID            uuid.UUID          `json:"id"`
	JobID         uuid.UUID          `json:"job_id"`
	ConflictID    string             `json:"conflict_id"`
	Field         string             `json:"field"`
	LocalValue    any                `json:"local_value"`
	ExternalValue any                `json:"external_value"`
	Strategy      ResolutionStrategy `json:"strategy"`
	ResolvedValue any                `json:"resolved_value"`
	ResolvedAt    time.Time          `json:"resolved_at"`
}

// ResolutionReport aggregates the outcome of a resolution pass.
// Individual failures never block the remaining conflicts.
type ResolutionReport struct {
	Success       bool              `json:"success"`
	ResolvedCount int               `json:"resolved_count"`
	FailedCount   int               `json:"failed_count"`
	Errors        map[string]string `json:"errors,omitempty"`
}
