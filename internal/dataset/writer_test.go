package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi/internal/attendance"
	"presensi/internal/features"
)

func TestFeatureTableHeaders(t *testing.T) {
	late := FeatureTableHeaders(features.FlagLate)
	assert.Contains(t, late, "Count_Telat_7D")
	assert.Contains(t, late, "Streak_Telat")
	assert.Contains(t, late, "Count_Alpa_30D")
	assert.Contains(t, late, "Avg_Arrival_Time_7D")
	assert.Contains(t, late, "DayOfWeek")

	absent := FeatureTableHeaders(features.FlagAbsent)
	assert.Contains(t, absent, "Count_Alpa_7D")
	assert.Contains(t, absent, "Streak_Alpa")
}

func TestWriteFeatureTable(t *testing.T) {
	checkin := time.Date(2024, 3, 5, 7, 30, 0, 0, time.UTC)
	rows := []features.FeatureRow{
		{
			RecordID:       9,
			EntityID:       "S1",
			Date:           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			CheckinTime:    &checkin,
			Status:         attendance.StatusLate,
			Lag1Status:     attendance.StatusPresent,
			CountFlag7D:    2,
			CountAbsent30D: 1,
			AvgArrival7D:   457.5,
			Streak:         1,
			DayOfWeek:      1,
		},
		{
			RecordID:   3,
			EntityID:   "S2",
			Date:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Status:     attendance.StatusAbsent,
			Lag1Status: attendance.StatusAbsent,
		},
	}

	path := filepath.Join(t.TempDir(), "out", "features.csv")
	require.NoError(t, WriteFeatureTable(path, rows, features.FlagLate))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "BOM prefix for Excel")

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, FeatureTableHeaders(features.FlagLate), records[0])

	assert.Equal(t, "9", records[1][0], "row order is preserved as given")
	assert.Equal(t, "S1", records[1][1])
	assert.Equal(t, "2024-03-05", records[1][2])
	assert.Equal(t, "2024-03-05 07:30:00", records[1][3])
	assert.Equal(t, "", records[1][4], "missing checkout stays empty")
	assert.Equal(t, "telat", records[1][5])
	assert.Equal(t, "hadir", records[1][6])
	assert.Equal(t, "2", records[1][7])
	assert.Equal(t, "1", records[1][8])
	assert.Equal(t, "457.5", records[1][9])
	assert.Equal(t, "1", records[1][10])
	assert.Equal(t, "1", records[1][11])

	assert.Equal(t, "3", records[2][0])
	assert.Equal(t, "", records[2][3])
}
