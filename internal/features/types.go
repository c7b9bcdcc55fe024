package features

import (
	"time"

	"presensi/internal/attendance"
)

// Window lengths for the rolling aggregates, in calendar days. Windows are
// calendar-bounded, not row-count-bounded: a gap of unobserved days does
// not shrink them.
const (
	ShortWindowDays = 7
	LongWindowDays  = 30
)

// FlagVariant selects which status drives the 7-day count and the streak.
type FlagVariant string

const (
	// FlagLate tracks consecutive/windowed lateness (Streak_Telat).
	FlagLate FlagVariant = "telat"
	// FlagAbsent tracks consecutive/windowed absence (Streak_Alpa).
	FlagAbsent FlagVariant = "alpa"
)

// IsValid reports whether the variant is one of the known values.
func (v FlagVariant) IsValid() bool {
	return v == FlagLate || v == FlagAbsent
}

// Matches reports whether a canonical status sets this variant's flag.
func (v FlagVariant) Matches(s attendance.Status) bool {
	switch v {
	case FlagLate:
		return s == attendance.StatusLate
	case FlagAbsent:
		return s == attendance.StatusAbsent
	default:
		return false
	}
}

// CountColumn returns the output column name for the 7-day count.
func (v FlagVariant) CountColumn() string {
	if v == FlagAbsent {
		return "Count_Alpa_7D"
	}
	return "Count_Telat_7D"
}

// StreakColumn returns the output column name for the streak.
func (v FlagVariant) StreakColumn() string {
	if v == FlagAbsent {
		return "Streak_Alpa"
	}
	return "Streak_Telat"
}

// FeatureRow is one row of the engineered table: the original event
// columns (note already canonical) plus the historical features. Every
// historical feature depends only on strictly earlier dates of the same
// entity.
type FeatureRow struct {
	RecordID     int64             `json:"record_id"`
	EntityID     string            `json:"entity_id"`
	Date         time.Time         `json:"date"`
	CheckinTime  *time.Time        `json:"checkin_time,omitempty"`
	CheckoutTime *time.Time        `json:"checkout_time,omitempty"`
	Status       attendance.Status `json:"status"`

	Lag1Status     attendance.Status `json:"lag_1_status"`
	CountFlag7D    int               `json:"count_flag_7d"`
	CountAbsent30D int               `json:"count_alpa_30d"`
	AvgArrival7D   float64           `json:"avg_arrival_time_7d"`
	Streak         int               `json:"streak"`
	DayOfWeek      int               `json:"day_of_week"`
}

// HasCheckin reports whether the underlying event recorded a check-in.
func (r FeatureRow) HasCheckin() bool { return r.CheckinTime != nil }
