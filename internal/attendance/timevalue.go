package attendance

import (
	"strings"
	"time"
)

// MinutesMissing is the sentinel returned when a time value is absent or
// cannot be parsed. It is outside the valid range [0, 1439].
const MinutesMissing = -1

// timeLayouts are the timestamp shapes observed in exported attendance
// logs, tried in order. Date-only strings parse but carry no time of day,
// which correctly yields 0 minutes only for genuine midnight stamps.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// ToMinutes converts a value of unknown representation to minutes elapsed
// since midnight. It accepts time.Time, *time.Time, a parseable string, or
// nil, and returns MinutesMissing for anything absent or unparseable.
// Malformed input never aborts a batch, it degrades to missing.
func ToMinutes(value any) int {
	switch v := value.(type) {
	case nil:
		return MinutesMissing
	case time.Time:
		return minutesOfDay(v)
	case *time.Time:
		if v == nil {
			return MinutesMissing
		}
		return minutesOfDay(*v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return MinutesMissing
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return minutesOfDay(t)
			}
		}
		return MinutesMissing
	default:
		return MinutesMissing
	}
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// MinutesIsMissing reports whether m is the missing sentinel.
func MinutesIsMissing(m int) bool { return m == MinutesMissing }
