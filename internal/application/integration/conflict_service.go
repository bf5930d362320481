package integration

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/integration"
)

// comparedFields is the allow-list of fields meaningful across both
// systems. Fields absent from either snapshot are skipped, not flagged.
// Platform adapters normalize their own vocabulary into these names
// before snapshots reach detection (Shopify's "title" arrives as
// "name"); new adapters must do the same or their fields are ignored.
var comparedFields = []string{"name", "quantity", "price"}

// updateTolerance is the window within which both sides may carry
// different update timestamps without it counting as a conflict.
const updateTolerance = 500 * time.Millisecond

// ConflictResolutionService detects differences between local and
// external entity snapshots and resolves them under a configured
// strategy.
type ConflictResolutionService struct {
	resolutions integration.ResolutionRepository
	logger      *zap.Logger
}

// NewConflictResolutionService creates a new ConflictResolutionService
func NewConflictResolutionService(resolutions integration.ResolutionRepository, logger *zap.Logger) *ConflictResolutionService {
	return &ConflictResolutionService{
		resolutions: resolutions,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Detection
// ---------------------------------------------------------------------------

// DetectConflicts compares the two snapshots field by field and returns
// one conflict per difference. Identical snapshots yield no conflicts.
func (s *ConflictResolutionService) DetectConflicts(local, external *integration.EntitySnapshot) []integration.SyncConflict {
	conflicts := make([]integration.SyncConflict, 0)

	if local.UpdatedAt != nil && external.UpdatedAt != nil {
		delta := local.UpdatedAt.Sub(*external.UpdatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta > updateTolerance {
			conflicts = append(conflicts,
				integration.NewUpdateConflict(local.EntityID, *local.UpdatedAt, *external.UpdatedAt))
		}
	}

	for _, field := range comparedFields {
		localValue, localOK := local.Fields[field]
		externalValue, externalOK := external.Fields[field]
		if !localOK || !externalOK {
			continue
		}
		if !valuesEqual(localValue, externalValue) {
			conflicts = append(conflicts,
				integration.NewFieldConflict(local.EntityID, field, localValue, externalValue))
		}
	}

	return conflicts
}

// valuesEqual compares snapshot values strictly, with decimal values
// compared by numeric equality rather than struct identity.
func valuesEqual(a, b any) bool {
	if da, ok := a.(decimal.Decimal); ok {
		if db, ok := b.(decimal.Decimal); ok {
			return da.Equal(db)
		}
	}
	return reflect.DeepEqual(a, b)
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// ResolveConflicts resolves each conflict independently under the given
// strategy; one failure never blocks the others. Every successful
// resolution is persisted as an immutable history record referencing
// the originating sync job.
func (s *ConflictResolutionService) ResolveConflicts(
	ctx context.Context,
	jobID uuid.UUID,
	conflicts []integration.SyncConflict,
	strategy integration.ResolutionStrategy,
) *integration.ResolutionReport {
	report := &integration.ResolutionReport{
		Success: true,
		Errors:  make(map[string]string),
	}

	for i := range conflicts {
		conflict := conflicts[i]
		resolved, err := resolveValue(&conflict, strategy)
		if err == nil {
			record := &integration.ConflictResolution{
				ID:            uuid.New(),
				JobID:         jobID,
				ConflictID:    conflict.ID,
				Field:         conflict.Field,
				LocalValue:    conflict.LocalValue,
				ExternalValue: conflict.ExternalValue,
				Strategy:      strategy,
				ResolvedValue: resolved,
				ResolvedAt:    time.Now(),
			}
			if perr := s.resolutions.Save(ctx, record); perr != nil {
				err = fmt.Errorf("persisting resolution: %w", perr)
			}
		}

		if err != nil {
			report.FailedCount++
			report.Success = false
			report.Errors[conflict.ID] = err.Error()
			s.logger.Warn("conflict resolution failed",
				zap.String("conflict_id", conflict.ID),
				zap.String("strategy", strategy.String()),
				zap.Error(err),
			)
			continue
		}
		report.ResolvedCount++
	}

	return report
}

// ResolvedValue computes the winning value for a single conflict under
// a strategy without persisting anything.
func (s *ConflictResolutionService) ResolvedValue(conflict *integration.SyncConflict, strategy integration.ResolutionStrategy) (any, error) {
	return resolveValue(conflict, strategy)
}

func resolveValue(conflict *integration.SyncConflict, strategy integration.ResolutionStrategy) (any, error) {
	switch strategy {
	case integration.StrategyLocalWins:
		return conflict.LocalValue, nil
	case integration.StrategyExternalWins:
		return conflict.ExternalValue, nil
	case integration.StrategyMerge:
		return mergeValues(conflict.LocalValue, conflict.ExternalValue), nil
	case integration.StrategyManual:
		return nil, integration.ErrManualResolutionRequired
	default:
		return nil, fmt.Errorf("%w: %q", integration.ErrUnknownStrategy, strategy)
	}
}

// mergeValues takes the maximum for numeric fields (numeric strings
// included; garbage parses as negative infinity so a valid number
// always wins) and prefers the external value for non-numeric fields.
func mergeValues(local, external any) any {
	localNum, localOK := toNumber(local)
	externalNum, externalOK := toNumber(external)

	if !localOK && !externalOK {
		// Non-numeric field: trust the external catalog value.
		return external
	}
	if localNum >= externalNum {
		return local
	}
	return external
}

// toNumber coerces a snapshot value to float64 for merge comparison.
// Unparseable values report negative infinity and not-ok. NaN and
// infinities count as unparseable too: ParseFloat accepts "NaN", and
// every comparison against NaN is false, which would let garbage win
// the merge.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return finite(n.InexactFloat64())
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return finite(parsed)
		}
	}
	return math.Inf(-1), false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return math.Inf(-1), false
	}
	return f, true
}
