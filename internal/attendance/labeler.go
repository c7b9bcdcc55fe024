package attendance

import (
	"log/slog"
	"strings"
)

// LabelVariant selects how the labeler treats rows that carry both a
// check-in and an explicit note. Two behaviors exist in the history of
// this pipeline and they disagree on conflicting rows, so both are kept
// selectable.
type LabelVariant string

const (
	// LabelStrict fills "hadir" only when the note is empty; an explicit
	// note always wins over the presence of a check-in.
	LabelStrict LabelVariant = "strict"
	// LabelOverwrite marks every row with a check-in as "hadir",
	// discarding any pre-existing note on those rows.
	LabelOverwrite LabelVariant = "overwrite"
)

// IsValid reports whether the variant is one of the known values.
func (v LabelVariant) IsValid() bool {
	return v == LabelStrict || v == LabelOverwrite
}

// LabelStatuses derives the canonical status for every event and returns a
// new slice with Note replaced by it. It must run before any grouping or
// feature computation so the present/absent derivation sees the original
// empty notes. Dates and timestamps are untouched.
//
// Rules, in order:
//   - check-in recorded, note empty (or variant == overwrite): hadir
//   - no check-in, note empty: alpa
//   - otherwise: the explicit note, normalized case-insensitively
//
// Re-labeling an already-labeled slice is a no-op: canonical statuses are
// non-empty and normalize onto themselves.
func LabelStatuses(events []Event, variant LabelVariant, logger *slog.Logger) []Event {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]Event, len(events))
	filled, overwritten := 0, 0

	for i, e := range events {
		noteEmpty := strings.TrimSpace(e.Note) == ""

		switch {
		case e.HasCheckin() && noteEmpty:
			e.Note = string(StatusPresent)
			filled++
		case e.HasCheckin() && variant == LabelOverwrite:
			if st, _ := NormalizeStatus(e.Note); st != StatusPresent {
				overwritten++
			}
			e.Note = string(StatusPresent)
		case !e.HasCheckin() && noteEmpty:
			e.Note = string(StatusAbsent)
			filled++
		default:
			st, _ := NormalizeStatus(e.Note)
			e.Note = string(st)
		}
		out[i] = e
	}

	logger.Debug("labeled attendance statuses",
		slog.Int("events", len(events)),
		slog.Int("filled", filled),
		slog.Int("overwritten", overwritten),
		slog.String("variant", string(variant)),
	)

	return out
}
