package attendance

import (
	"strings"
	"time"
)

// Status is the canonical attendance outcome for one entity-day.
type Status string

const (
	// StatusPresent means the student checked in on time
	StatusPresent Status = "hadir"
	// StatusLate means the student checked in after the cutoff
	StatusLate Status = "telat"
	// StatusAbsent means the student never checked in
	StatusAbsent Status = "alpa"
	// StatusHoliday means no attendance was expected that day
	StatusHoliday Status = "libur"
)

// statusSynonyms maps lowercased free-text notes onto canonical statuses.
// The raw log mixes Indonesian and English spellings in arbitrary case.
var statusSynonyms = map[string]Status{
	"hadir":   StatusPresent,
	"present": StatusPresent,
	"telat":   StatusLate,
	"late":    StatusLate,
	"alpa":    StatusAbsent,
	"absent":  StatusAbsent,
	"libur":   StatusHoliday,
	"holiday": StatusHoliday,
}

// NormalizeStatus maps a raw note onto its canonical status.
// Unknown non-empty notes (e.g. "sakit", "izin") pass through lowercased:
// they are legitimate explicit statuses, just not ones any flag tracks.
// The second return reports whether the note matched a known synonym.
func NormalizeStatus(raw string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusSynonyms[key]; ok {
		return s, true
	}
	return Status(key), false
}

// IsHoliday reports whether the status is the holiday marker.
func (s Status) IsHoliday() bool { return s == StatusHoliday }

// Event is one row of the raw attendance log: one entity, one calendar day.
// Events are read-only inputs; every pipeline stage returns new slices
// rather than mutating rows in place.
type Event struct {
	RecordID     int64      `json:"record_id"`
	EntityID     string     `json:"entity_id"`
	Date         time.Time  `json:"date"`
	CheckinTime  *time.Time `json:"checkin_time,omitempty"`
	CheckoutTime *time.Time `json:"checkout_time,omitempty"`
	Note         string     `json:"note,omitempty"`
}

// HasCheckin reports whether a check-in timestamp was recorded.
func (e Event) HasCheckin() bool { return e.CheckinTime != nil }

// Status returns the event's note as a canonical status. Only meaningful
// after labeling; before that the note is free text.
func (e Event) Status() Status { return Status(e.Note) }

// IsValid checks that the event carries the fields every stage relies on.
func (e Event) IsValid() bool {
	return e.EntityID != "" && !e.Date.IsZero()
}

// Day truncates a timestamp to its calendar day in UTC. All window
// arithmetic in the feature engine compares days produced by this.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
