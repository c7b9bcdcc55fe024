package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"presensi/internal/features"
)

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // UTF-8 BOM so Excel opens the file correctly
}

// WriteCSV writes data to a CSV file with the given options.
func WriteCSV(path string, options WriteOptions) error {
	slog.Info("writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return writer.Error()
}

// FeatureTableHeaders returns the output column order for a flag variant.
func FeatureTableHeaders(variant features.FlagVariant) []string {
	return []string{
		"id", "rfid_tag", "date", "checkin_time", "checkout_time", "note",
		"Lag_1_Status",
		variant.CountColumn(),
		"Count_Alpa_30D",
		"Avg_Arrival_Time_7D",
		variant.StreakColumn(),
		"DayOfWeek",
	}
}

// WriteFeatureTable writes the engineered table to a CSV file, keeping the
// pipeline's record-id-descending row order.
func WriteFeatureTable(path string, rows []features.FeatureRow, variant features.FlagVariant) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.RecordID, 10),
			r.EntityID,
			r.Date.Format("2006-01-02"),
			formatTimestamp(r.CheckinTime),
			formatTimestamp(r.CheckoutTime),
			string(r.Status),
			string(r.Lag1Status),
			strconv.Itoa(r.CountFlag7D),
			strconv.Itoa(r.CountAbsent30D),
			strconv.FormatFloat(r.AvgArrival7D, 'f', -1, 64),
			strconv.Itoa(r.Streak),
			strconv.Itoa(r.DayOfWeek),
		})
	}

	return WriteCSV(path, WriteOptions{
		Headers:   FeatureTableHeaders(variant),
		Records:   records,
		BOMPrefix: true,
	})
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
