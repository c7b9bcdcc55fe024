package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsPtr(hour, minute int) *time.Time {
	t := time.Date(2024, 3, 5, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw   string
		want  Status
		known bool
	}{
		{"Telat", StatusLate, true},
		{"LATE", StatusLate, true},
		{"alpa", StatusAbsent, true},
		{"ALPA", StatusAbsent, true},
		{"Absent", StatusAbsent, true},
		{"Libur", StatusHoliday, true},
		{"Holiday", StatusHoliday, true},
		{"hadir", StatusPresent, true},
		{"Present", StatusPresent, true},
		{"  telat  ", StatusLate, true},
		{"sakit", Status("sakit"), false},
	}
	for _, tt := range tests {
		got, known := NormalizeStatus(tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		assert.Equal(t, tt.known, known, "raw=%q", tt.raw)
	}
}

func TestLabelStatuses(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{RecordID: 1, EntityID: "A", Date: day, CheckinTime: tsPtr(7, 0)},                                 // checkin, empty note
		{RecordID: 2, EntityID: "A", Date: day.AddDate(0, 0, 1)},                                          // no checkin, empty note
		{RecordID: 3, EntityID: "A", Date: day.AddDate(0, 0, 2), CheckinTime: tsPtr(9, 0), Note: "Telat"}, // conflict
		{RecordID: 4, EntityID: "A", Date: day.AddDate(0, 0, 3), Note: "Libur"},
	}

	t.Run("strict_keeps_explicit_note", func(t *testing.T) {
		out := LabelStatuses(events, LabelStrict, nil)
		require.Len(t, out, 4)
		assert.Equal(t, StatusPresent, out[0].Status())
		assert.Equal(t, StatusAbsent, out[1].Status())
		assert.Equal(t, StatusLate, out[2].Status())
		assert.Equal(t, StatusHoliday, out[3].Status())
	})

	t.Run("overwrite_discards_conflicting_note", func(t *testing.T) {
		out := LabelStatuses(events, LabelOverwrite, nil)
		assert.Equal(t, StatusPresent, out[2].Status(), "check-in wins over the explicit note")
		assert.Equal(t, StatusAbsent, out[1].Status())
		assert.Equal(t, StatusHoliday, out[3].Status())
	})

	t.Run("input_not_mutated", func(t *testing.T) {
		LabelStatuses(events, LabelStrict, nil)
		assert.Empty(t, events[0].Note)
	})

	t.Run("idempotent_on_labeled_rows", func(t *testing.T) {
		once := LabelStatuses(events, LabelStrict, nil)
		twice := LabelStatuses(once, LabelStrict, nil)
		assert.Equal(t, once, twice)
	})

	t.Run("timestamps_untouched", func(t *testing.T) {
		out := LabelStatuses(events, LabelStrict, nil)
		assert.Equal(t, events[0].CheckinTime, out[0].CheckinTime)
		assert.Equal(t, events[0].Date, out[0].Date)
	})
}
