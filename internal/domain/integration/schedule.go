package integration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSchedule is returned when a schedule fails validation
	ErrInvalidSchedule = errors.New("integration: invalid sync schedule")
	// ErrUnknownFrequency is returned for unrecognized frequencies
	ErrUnknownFrequency = errors.New("integration: unknown schedule frequency")
)

// ---------------------------------------------------------------------------
// Frequency
// ---------------------------------------------------------------------------

// Frequency is how often a schedule enqueues a sync job
type Frequency string

const (
	FrequencyEvery5Minutes  Frequency = "every_5_minutes"
	FrequencyEvery15Minutes Frequency = "every_15_minutes"
	FrequencyEvery30Minutes Frequency = "every_30_minutes"
	FrequencyHourly         Frequency = "hourly"
	FrequencyDaily          Frequency = "daily"
	FrequencyWeekly         Frequency = "weekly"
)

// IsValid returns true if the frequency is valid
func (f Frequency) IsValid() bool {
	_, err := f.Interval()
	return err == nil
}

// Interval returns the fixed interval for the frequency
func (f Frequency) Interval() (time.Duration, error) {
	switch f {
	case FrequencyEvery5Minutes:
		return 5 * time.Minute, nil
	case FrequencyEvery15Minutes:
		return 15 * time.Minute, nil
	case FrequencyEvery30Minutes:
		return 30 * time.Minute, nil
	case FrequencyHourly:
		return time.Hour, nil
	case FrequencyDaily:
		return 24 * time.Hour, nil
	case FrequencyWeekly:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, ErrUnknownFrequency
	}
}

// String returns the string representation of Frequency
func (f Frequency) String() string {
	return string(f)
}

// ---------------------------------------------------------------------------
// ActiveHours
// ---------------------------------------------------------------------------

// ActiveHours restricts a schedule to a daily time-of-day window.
// A window whose end precedes its start wraps past midnight.
type ActiveHours struct {
	// StartHour/StartMinute and EndHour/EndMinute are in the schedule's
	// timezone.
	StartHour   int    `json:"start_hour"`
	StartMinute int    `json:"start_minute"`
	EndHour     int    `json:"end_hour"`
	EndMinute   int    `json:"end_minute"`
	Timezone    string `json:"timezone"`
}

// Validate checks the window's bounds and timezone
func (h *ActiveHours) Validate() error {
	if h.StartHour < 0 || h.StartHour > 23 || h.EndHour < 0 || h.EndHour > 23 {
		return ErrInvalidSchedule
	}
	if h.StartMinute < 0 || h.StartMinute > 59 || h.EndMinute < 0 || h.EndMinute > 59 {
		return ErrInvalidSchedule
	}
	if h.Timezone != "" {
		if _, err := time.LoadLocation(h.Timezone); err != nil {
			return ErrInvalidSchedule
		}
	}
	return nil
}

// Contains returns true if the instant falls inside the window,
// evaluated in the window's timezone. Windows with end < start span
// midnight: 20:00-06:00 contains 23:00 and 02:00 but not 12:00.
func (h *ActiveHours) Contains(at time.Time) (bool, error) {
	loc := time.UTC
	if h.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(h.Timezone)
		if err != nil {
			return false, ErrInvalidSchedule
		}
	}
	local := at.In(loc)
	minuteOfDay := local.Hour()*60 + local.Minute()
	start := h.StartHour*60 + h.StartMinute
	end := h.EndHour*60 + h.EndMinute

	if start == end {
		// Degenerate window covers the whole day.
		return true, nil
	}
	if start < end {
		return minuteOfDay >= start && minuteOfDay < end, nil
	}
	// Wraparound window.
	return minuteOfDay >= start || minuteOfDay < end, nil
}

// ---------------------------------------------------------------------------
// SyncSchedule
// ---------------------------------------------------------------------------

// SyncSchedule drives periodic job creation for one integration
type SyncSchedule struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	IntegrationID uuid.UUID
	Frequency     Frequency
	ActiveHours   *ActiveHours
	Config        JobConfig
	Enabled       bool
	LastRunAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the schedule's configuration
func (s *SyncSchedule) Validate() error {
	if !s.Frequency.IsValid() {
		return ErrUnknownFrequency
	}
	if s.ActiveHours != nil {
		if err := s.ActiveHours.Validate(); err != nil {
			return err
		}
	}
	return s.Config.Validate()
}

// IsDue returns true when the schedule should enqueue a job at the given
// instant: the active-hours window (if any) contains it, and the
// frequency interval has fully elapsed since the last run. A schedule
// that has never run is always due on the frequency axis.
func (s *SyncSchedule) IsDue(now time.Time) (bool, error) {
	if !s.Enabled {
		return false, nil
	}
	if s.ActiveHours != nil {
		inside, err := s.ActiveHours.Contains(now)
		if err != nil {
			return false, err
		}
		if !inside {
			return false, nil
		}
	}
	if s.LastRunAt == nil {
		return true, nil
	}
	interval, err := s.Frequency.Interval()
	if err != nil {
		return false, err
	}
	return now.Sub(*s.LastRunAt) >= interval, nil
}

// MarkRun records that the schedule fired
func (s *SyncSchedule) MarkRun(at time.Time) {
	s.LastRunAt = &at
	s.UpdatedAt = at
}
