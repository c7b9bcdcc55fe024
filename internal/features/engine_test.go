package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi/internal/attendance"
)

// ev builds a labeled event. checkin is "HH:MM" or "" for no check-in.
func ev(id int64, entity string, day int, checkin string, note attendance.Status) attendance.Event {
	e := attendance.Event{
		RecordID: id,
		EntityID: entity,
		Date:     d(day),
		Note:     string(note),
	}
	if checkin != "" {
		t, err := time.Parse("15:04", checkin)
		if err != nil {
			panic(err)
		}
		ts := time.Date(2024, 3, day, t.Hour(), t.Minute(), 0, 0, time.UTC)
		e.CheckinTime = &ts
	}
	return e
}

func engineer(t *testing.T, variant FlagVariant, events []attendance.Event) []FeatureRow {
	t.Helper()
	engine, err := NewEngine(variant, nil)
	require.NoError(t, err)
	rows, err := engine.Engineer(context.Background(), events)
	require.NoError(t, err)
	return rows
}

// rowByID finds a row by record id; the table is sorted by id descending.
func rowByID(t *testing.T, rows []FeatureRow, id int64) FeatureRow {
	t.Helper()
	for _, r := range rows {
		if r.RecordID == id {
			return r
		}
	}
	t.Fatalf("no row with record id %d", id)
	return FeatureRow{}
}

func TestEngineerSingleEventEntity(t *testing.T) {
	rows := engineer(t, FlagLate, []attendance.Event{
		ev(1, "S1", 1, "07:30", attendance.StatusPresent),
	})
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, attendance.StatusAbsent, r.Lag1Status, "no previous event collapses to absent")
	assert.Equal(t, 0, r.CountFlag7D)
	assert.Equal(t, 0, r.CountAbsent30D)
	assert.Equal(t, 0.0, r.AvgArrival7D, "strictly-prior window is empty for a first event")
	assert.Equal(t, 0, r.Streak)
}

func TestEngineerStreakScenario(t *testing.T) {
	// S1 attends days 1-10, late on days 2, 3 and 4.
	var events []attendance.Event
	for day := 1; day <= 10; day++ {
		st := attendance.StatusPresent
		if day >= 2 && day <= 4 {
			st = attendance.StatusLate
		}
		events = append(events, ev(int64(day), "S1", day, "07:00", st))
	}

	rows := engineer(t, FlagLate, events)
	require.Len(t, rows, 10)

	assert.Equal(t, 3, rowByID(t, rows, 5).Streak, "day 5 follows three consecutive late days")
	assert.Equal(t, 0, rowByID(t, rows, 6).Streak, "day 5 was on time, so the streak resets")
	assert.Equal(t, 1, rowByID(t, rows, 3).Streak)
	assert.Equal(t, 2, rowByID(t, rows, 4).Streak)
}

func TestEngineerRollingCounts(t *testing.T) {
	var events []attendance.Event
	for day := 1; day <= 10; day++ {
		st := attendance.StatusPresent
		checkin := "07:00"
		switch day {
		case 2, 3, 4:
			st = attendance.StatusLate
		case 6:
			st = attendance.StatusAbsent
			checkin = ""
		}
		events = append(events, ev(int64(day), "S1", day, checkin, st))
	}

	rows := engineer(t, FlagLate, events)

	// Day 9 window [2, 9) holds all three late days; day 10's [3, 10)
	// has lost day 2.
	assert.Equal(t, 3, rowByID(t, rows, 9).CountFlag7D)
	assert.Equal(t, 2, rowByID(t, rows, 10).CountFlag7D)

	// The single absence on day 6 is visible to every later row within
	// 30 days, but not to day 6 itself.
	assert.Equal(t, 0, rowByID(t, rows, 6).CountAbsent30D)
	assert.Equal(t, 1, rowByID(t, rows, 7).CountAbsent30D)
	assert.Equal(t, 1, rowByID(t, rows, 10).CountAbsent30D)
}

func TestEngineerAvgArrival(t *testing.T) {
	events := []attendance.Event{
		ev(1, "S1", 1, "08:00", attendance.StatusPresent), // 480 minutes
		ev(2, "S1", 2, "", attendance.StatusAbsent),       // no arrival
		ev(3, "S1", 3, "09:00", attendance.StatusLate),    // 540 minutes
		ev(4, "S1", 4, "07:00", attendance.StatusPresent),
	}

	rows := engineer(t, FlagLate, events)

	assert.Equal(t, 0.0, rowByID(t, rows, 1).AvgArrival7D, "empty window reports 0, not no-data")
	assert.InDelta(t, 480.0, rowByID(t, rows, 2).AvgArrival7D, 1e-9)
	assert.InDelta(t, 480.0, rowByID(t, rows, 3).AvgArrival7D, 1e-9,
		"the missing arrival on day 2 stays out of the denominator")
	assert.InDelta(t, 510.0, rowByID(t, rows, 4).AvgArrival7D, 1e-9)
}

func TestEngineerHolidayRows(t *testing.T) {
	events := []attendance.Event{
		ev(1, "S1", 1, "07:40", attendance.StatusLate),
		ev(2, "S1", 2, "", attendance.StatusHoliday),
		ev(3, "S1", 3, "07:00", attendance.StatusPresent),
	}

	rows := engineer(t, FlagLate, events)
	require.Len(t, rows, 2, "holiday rows are never prediction targets")
	for _, r := range rows {
		assert.False(t, r.Status.IsHoliday())
	}

	r3 := rowByID(t, rows, 3)
	assert.Equal(t, attendance.StatusAbsent, r3.Lag1Status, "a holiday lag collapses to absent")
	assert.Equal(t, 1, r3.CountFlag7D, "the late day before the holiday still counts")
	assert.Equal(t, 0, r3.Streak, "the holiday itself is not a late event")
}

func TestEngineerNoLeakage(t *testing.T) {
	base := []attendance.Event{
		ev(1, "S1", 1, "07:00", attendance.StatusPresent),
		ev(2, "S1", 2, "08:00", attendance.StatusLate),
		ev(3, "S1", 3, "07:10", attendance.StatusPresent),
		ev(4, "S1", 4, "07:20", attendance.StatusPresent),
	}
	before := engineer(t, FlagLate, base)

	// Perturb the last event's status and arrival; earlier rows must not
	// move at all.
	perturbed := append([]attendance.Event(nil), base...)
	perturbed[3] = ev(4, "S1", 4, "11:45", attendance.StatusLate)
	after := engineer(t, FlagLate, perturbed)

	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, rowByID(t, before, id), rowByID(t, after, id),
			"record %d changed when a later row was perturbed", id)
	}
}

func TestEngineerAbsentVariant(t *testing.T) {
	events := []attendance.Event{
		ev(1, "S1", 1, "", attendance.StatusAbsent),
		ev(2, "S1", 2, "", attendance.StatusAbsent),
		ev(3, "S1", 3, "07:00", attendance.StatusPresent),
		ev(4, "S1", 4, "08:30", attendance.StatusLate),
	}

	rows := engineer(t, FlagAbsent, events)

	r3 := rowByID(t, rows, 3)
	assert.Equal(t, 2, r3.Streak, "two consecutive absences precede day 3")
	assert.Equal(t, 2, r3.CountFlag7D)
	r4 := rowByID(t, rows, 4)
	assert.Equal(t, 0, r4.Streak)
}

func TestEngineerOrderingAndEntities(t *testing.T) {
	events := []attendance.Event{
		ev(10, "S1", 1, "07:00", attendance.StatusPresent),
		ev(11, "S2", 1, "", attendance.StatusAbsent),
		ev(12, "S1", 2, "07:05", attendance.StatusPresent),
		ev(13, "S2", 2, "", attendance.StatusAbsent),
	}

	engine, err := NewEngine(FlagLate, nil)
	require.NoError(t, err)
	engine.SetConcurrency(2)
	rows, err := engine.Engineer(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i-1].RecordID, rows[i].RecordID, "table must be record-id descending")
	}

	// Entities are independent: S2's absences never touch S1's counters.
	assert.Equal(t, 0, rowByID(t, rows, 12).CountAbsent30D)
	assert.Equal(t, 1, rowByID(t, rows, 13).CountAbsent30D)
}

func TestEngineerDayOfWeek(t *testing.T) {
	// 2024-03-04 is a Monday.
	rows := engineer(t, FlagLate, []attendance.Event{
		ev(1, "S1", 4, "07:00", attendance.StatusPresent),
		ev(2, "S1", 5, "07:00", attendance.StatusPresent),
		ev(3, "S1", 10, "07:00", attendance.StatusPresent), // Sunday
	})

	assert.Equal(t, 0, rowByID(t, rows, 1).DayOfWeek)
	assert.Equal(t, 1, rowByID(t, rows, 2).DayOfWeek)
	assert.Equal(t, 6, rowByID(t, rows, 3).DayOfWeek)
}

func TestEngineerInputValidation(t *testing.T) {
	engine, err := NewEngine(FlagLate, nil)
	require.NoError(t, err)

	t.Run("duplicate_entity_day", func(t *testing.T) {
		_, err := engine.Engineer(context.Background(), []attendance.Event{
			ev(1, "S1", 1, "07:00", attendance.StatusPresent),
			ev(2, "S1", 1, "07:30", attendance.StatusPresent),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "S1")
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("missing_entity_id", func(t *testing.T) {
		_, err := engine.Engineer(context.Background(), []attendance.Event{
			{RecordID: 1, Date: d(1)},
		})
		require.Error(t, err)
	})

	t.Run("invalid_variant", func(t *testing.T) {
		_, err := NewEngine(FlagVariant("weekend"), nil)
		require.Error(t, err)
	})
}

func TestEngineerIdempotentFeatures(t *testing.T) {
	events := []attendance.Event{
		ev(1, "S1", 1, "07:00", attendance.StatusPresent),
		ev(2, "S1", 2, "08:10", attendance.StatusLate),
		ev(3, "S1", 3, "", attendance.StatusAbsent),
	}

	first := engineer(t, FlagLate, events)
	second := engineer(t, FlagLate, events)
	assert.Equal(t, first, second, "re-deriving from canonical statuses must be stable")
}
