// Package dataset is the tabular boundary of the pipeline: it reads raw
// attendance logs from CSV or Excel exports and writes the engineered
// feature table back out as CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"presensi/internal/attendance"
)

// Canonical input columns. The raw exports have used both the canonical
// names and the legacy device names, so each column accepts aliases.
var requiredColumns = []struct {
	name    string
	aliases []string
}{
	{"record_id", []string{"record_id", "id"}},
	{"entity_id", []string{"entity_id", "rfid_tag"}},
	{"date", []string{"date"}},
	{"checkin_time", []string{"checkin_time"}},
	{"checkout_time", []string{"checkout_time"}},
	{"note", []string{"note"}},
}

// MissingColumnsError reports required columns absent from an input file.
// It is raised before any row is processed: a log without its schema is a
// configuration problem, not a data problem.
type MissingColumnsError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Path, strings.Join(e.Columns, ", "))
}

// dateLayouts are the calendar-day shapes accepted for the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
}

// timestampLayouts are the shapes accepted for check-in/check-out values.
// Time-of-day-only values are anchored to the row's date.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

var timeOfDayLayouts = []string{
	"15:04:05",
	"15:04",
}

// ReadCSV loads an attendance log from a CSV file.
func ReadCSV(path string) ([]attendance.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attendance log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	cols, err := resolveColumns(path, header)
	if err != nil {
		return nil, err
	}

	var events []attendance.Event
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read row: %w", path, err)
		}
		line++
		ev, err := rowToEvent(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, line, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// resolveColumns maps the canonical column names onto header positions,
// honoring aliases. All required columns must resolve or the file is
// rejected before any processing starts.
func resolveColumns(path string, header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}

	cols := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, rc := range requiredColumns {
		found := false
		for _, alias := range rc.aliases {
			if i, ok := index[alias]; ok {
				cols[rc.name] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, rc.name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Path: path, Columns: missing}
	}
	return cols, nil
}

// rowToEvent converts one record into an Event. Malformed check-in and
// check-out values degrade to nil (missing), matching the timestamp error
// taxonomy; a malformed id or date is a real error because ordering and
// windowing depend on them.
func rowToEvent(record []string, cols map[string]int) (attendance.Event, error) {
	cell := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id, err := strconv.ParseInt(cell("record_id"), 10, 64)
	if err != nil {
		return attendance.Event{}, fmt.Errorf("column record_id: %w", err)
	}

	date, err := parseDate(cell("date"))
	if err != nil {
		return attendance.Event{}, fmt.Errorf("column date: %w", err)
	}

	return attendance.Event{
		RecordID:     id,
		EntityID:     cell("entity_id"),
		Date:         date,
		CheckinTime:  parseTimestamp(cell("checkin_time"), date),
		CheckoutTime: parseTimestamp(cell("checkout_time"), date),
		Note:         cell("note"),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return attendance.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseTimestamp returns nil for empty or unparseable values: a bad sensor
// timestamp must never abort the batch.
func parseTimestamp(s string, day time.Time) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			anchored := time.Date(day.Year(), day.Month(), day.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
			return &anchored
		}
	}
	return nil
}
