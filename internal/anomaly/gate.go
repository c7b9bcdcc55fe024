package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"presensi/internal/attendance"
	"presensi/internal/features"
)

// Mode places the gate in the pipeline. Pre runs on the labeled event log
// before feature engineering; post runs on the engineered table and can
// therefore feed the rolling/streak columns to the model as well. The two
// placements are alternatives, not stages to combine.
type Mode string

const (
	ModeOff  Mode = "off"
	ModePre  Mode = "pre"
	ModePost Mode = "post"
)

// IsValid reports whether the mode is one of the known values.
func (m Mode) IsValid() bool {
	return m == ModeOff || m == ModePre || m == ModePost
}

// Gate removes rows the outlier model flags as implausible sensor data.
// Only rows with a check-in are ever scored: absent/holiday rows are not
// sensor readings and are never dropped here. Scoring features are scoped
// to the call and never appear in any output.
type Gate struct {
	scorer Scorer
	logger *slog.Logger
}

// NewGate creates a gate around the given scorer.
func NewGate(scorer Scorer, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{scorer: scorer, logger: logger}
}

// FilterEvents gates the raw (labeled) event log: the pre-engineering
// placement. Scoring sees duration_hours and arrival_hour only.
func (g *Gate) FilterEvents(ctx context.Context, events []attendance.Event) ([]attendance.Event, error) {
	samples := make([][]float64, 0, len(events))
	indices := make([]int, 0, len(events))
	for i, e := range events {
		if !e.HasCheckin() {
			continue
		}
		dur, arr := sensorFeatures(e.CheckinTime, e.CheckoutTime)
		samples = append(samples, []float64{dur, arr})
		indices = append(indices, i)
	}

	drop, err := g.flag(ctx, samples, indices, len(events))
	if err != nil {
		return nil, err
	}
	if drop == nil {
		return events, nil
	}

	out := make([]attendance.Event, 0, len(events))
	for i, e := range events {
		if _, flagged := drop[i]; !flagged {
			out = append(out, e)
		}
	}
	return out, nil
}

// FilterRows gates the engineered feature table: the post-engineering
// placement. The model additionally sees the engineered numeric columns
// present at gate time.
func (g *Gate) FilterRows(ctx context.Context, rows []features.FeatureRow) ([]features.FeatureRow, error) {
	samples := make([][]float64, 0, len(rows))
	indices := make([]int, 0, len(rows))
	for i, r := range rows {
		if !r.HasCheckin() {
			continue
		}
		dur, arr := sensorFeatures(r.CheckinTime, r.CheckoutTime)
		samples = append(samples, []float64{
			dur,
			arr,
			float64(r.CountFlag7D),
			float64(r.CountAbsent30D),
			r.AvgArrival7D,
			float64(r.Streak),
		})
		indices = append(indices, i)
	}

	drop, err := g.flag(ctx, samples, indices, len(rows))
	if err != nil {
		return nil, err
	}
	if drop == nil {
		return rows, nil
	}

	out := make([]features.FeatureRow, 0, len(rows))
	for i, r := range rows {
		if _, flagged := drop[i]; !flagged {
			out = append(out, r)
		}
	}
	return out, nil
}

// flag scores the sample matrix and maps verdicts back to original row
// indices. A nil map means the gate is a no-op: the scoring subset was
// empty or too small for the model's internal splits, which the pipeline
// treats as success, not failure.
func (g *Gate) flag(ctx context.Context, samples [][]float64, indices []int, total int) (map[int]struct{}, error) {
	if len(samples) < 2 {
		g.logger.InfoContext(ctx, "anomaly gate skipped",
			slog.Int("scorable_rows", len(samples)),
			slog.Int("total_rows", total),
		)
		return nil, nil
	}

	verdicts, err := g.scorer.FitPredict(samples)
	if err != nil {
		return nil, fmt.Errorf("anomaly gate: %w", err)
	}

	drop := make(map[int]struct{})
	for j, anomalous := range verdicts {
		if anomalous {
			drop[indices[j]] = struct{}{}
		}
	}

	g.logger.InfoContext(ctx, "anomaly gate applied",
		slog.Int("scored_rows", len(samples)),
		slog.Int("anomalies_dropped", len(drop)),
		slog.Int("total_rows", total),
	)
	return drop, nil
}

// sensorFeatures derives the scoring pair from the raw timestamps:
// duration in hours with a missing checkout falling back to the check-in
// (duration 0), and the decimal arrival hour. Callers guarantee checkin is
// non-nil; anything still missing fills with 0.
func sensorFeatures(checkin, checkout *time.Time) (durationHours, arrivalHour float64) {
	if checkin == nil {
		return 0, 0
	}
	end := checkin
	if checkout != nil {
		end = checkout
	}
	durationHours = end.Sub(*checkin).Hours()
	arrivalHour = float64(checkin.Hour()) + float64(checkin.Minute())/60
	return durationHours, arrivalHour
}
