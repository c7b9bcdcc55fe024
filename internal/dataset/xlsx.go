package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"presensi/internal/attendance"
)

// Sheet names tried first when reading an Excel export. Device vendors
// have shipped logs under several of these.
var preferredSheets = []string{"attendance", "Attendance", "log", "Log", "Sheet1"}

// ReadXLSX loads an attendance log from an Excel workbook. The sheet is
// found by name first, then by probing every sheet for a header row that
// resolves the required columns.
func ReadXLSX(path string) ([]attendance.Event, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open attendance workbook: %w", err)
	}
	defer f.Close()

	var rows [][]string
	var cols map[string]int

	for _, name := range preferredSheets {
		candidate, err := f.GetRows(name)
		if err != nil || len(candidate) < 1 {
			continue
		}
		if c, err := resolveColumns(path, candidate[0]); err == nil {
			rows, cols = candidate, c
			break
		}
	}

	if cols == nil {
		var lastErr error
		for _, name := range f.GetSheetList() {
			candidate, err := f.GetRows(name)
			if err != nil || len(candidate) < 1 {
				continue
			}
			c, err := resolveColumns(path, candidate[0])
			if err != nil {
				lastErr = err
				continue
			}
			rows, cols = candidate, c
			break
		}
		if cols == nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, fmt.Errorf("%s: no sheet with attendance data found", path)
		}
	}

	var events []attendance.Event
	for i, record := range rows[1:] {
		if isEmptyRecord(record) {
			continue
		}
		ev, err := rowToEvent(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+2, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}
