package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"presensi/internal/anomaly"
	"presensi/internal/attendance"
	"presensi/internal/features"
)

// Step identifiers.
const (
	StepIDLabel    = "label"
	StepIDPreGate  = "anomaly_pre"
	StepIDEngineer = "engineer"
	StepIDPostGate = "anomaly_post"
	StepIDActivity = "activity_filter"
)

// LabelStep derives canonical statuses for the raw log.
type LabelStep struct {
	Variant attendance.LabelVariant
	Logger  *slog.Logger
}

func (s *LabelStep) ID() string   { return StepIDLabel }
func (s *LabelStep) Name() string { return "Status Labeling" }

func (s *LabelStep) Validate(state *State) error {
	if state.Events == nil {
		return fmt.Errorf("no events loaded")
	}
	if !s.Variant.IsValid() {
		return fmt.Errorf("invalid label variant: %q", s.Variant)
	}
	return nil
}

func (s *LabelStep) Execute(ctx context.Context, state *State) error {
	state.Events = attendance.LabelStatuses(state.Events, s.Variant, s.Logger)
	// Rate entities over the full labeled history before any gating can
	// remove rows from it.
	state.PresenceRates = attendance.PresenceRates(state.Events)
	return nil
}

// GateStep runs the anomaly gate in its configured placement. Pre mode
// filters the labeled event log; post mode filters the engineered table.
type GateStep struct {
	Gate *anomaly.Gate
	Mode anomaly.Mode
}

func (s *GateStep) ID() string {
	if s.Mode == anomaly.ModePost {
		return StepIDPostGate
	}
	return StepIDPreGate
}

func (s *GateStep) Name() string { return "Anomaly Gate" }

func (s *GateStep) Validate(state *State) error {
	switch s.Mode {
	case anomaly.ModePre:
		if state.Events == nil {
			return fmt.Errorf("no events to gate")
		}
	case anomaly.ModePost:
		if state.Rows == nil {
			return fmt.Errorf("no engineered rows to gate")
		}
	default:
		return fmt.Errorf("invalid gate mode: %q", s.Mode)
	}
	return nil
}

func (s *GateStep) Execute(ctx context.Context, state *State) error {
	switch s.Mode {
	case anomaly.ModePre:
		events, err := s.Gate.FilterEvents(ctx, state.Events)
		if err != nil {
			return err
		}
		state.Events = events
	case anomaly.ModePost:
		rows, err := s.Gate.FilterRows(ctx, state.Rows)
		if err != nil {
			return err
		}
		state.Rows = rows
	}
	return nil
}

// EngineerStep computes the temporal feature table from the labeled log.
type EngineerStep struct {
	Engine *features.Engine
}

func (s *EngineerStep) ID() string   { return StepIDEngineer }
func (s *EngineerStep) Name() string { return "Temporal Feature Engineering" }

func (s *EngineerStep) Validate(state *State) error {
	if state.Events == nil {
		return fmt.Errorf("no events to engineer")
	}
	return nil
}

func (s *EngineerStep) Execute(ctx context.Context, state *State) error {
	rows, err := s.Engine.Engineer(ctx, state.Events)
	if err != nil {
		return err
	}
	state.Rows = rows
	return nil
}

// ActivityStep removes low-activity entities from the final table. Rates
// come from the pre-gate labeled history (holidays included) so neither the
// dropped holiday target rows nor gated anomalies distort an entity's
// presence rate; the removal applies to the engineered rows at entity
// granularity.
type ActivityStep struct {
	ThresholdPct float64
	Logger       *slog.Logger
}

func (s *ActivityStep) ID() string   { return StepIDActivity }
func (s *ActivityStep) Name() string { return "Low-Activity Entity Filter" }

func (s *ActivityStep) Validate(state *State) error {
	if state.Rows == nil {
		return fmt.Errorf("no engineered rows to filter")
	}
	if s.ThresholdPct < 0 || s.ThresholdPct > 100 {
		return fmt.Errorf("threshold must be a percentage, got %v", s.ThresholdPct)
	}
	return nil
}

func (s *ActivityStep) Execute(ctx context.Context, state *State) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rates := state.PresenceRates
	if rates == nil {
		rates = attendance.PresenceRates(state.Events)
	}
	dropped := attendance.LowActivityEntities(rates, s.ThresholdPct)
	if len(dropped) == 0 {
		return nil
	}

	for id := range dropped {
		logger.InfoContext(ctx, "dropping low-activity entity",
			slog.String("entity_id", id),
			slog.Float64("presence_rate_pct", roundRate(rates[id])),
			slog.Float64("threshold_pct", s.ThresholdPct),
		)
	}

	out := make([]features.FeatureRow, 0, len(state.Rows))
	for _, r := range state.Rows {
		if _, drop := dropped[r.EntityID]; !drop {
			out = append(out, r)
		}
	}
	state.Rows = out
	return nil
}
