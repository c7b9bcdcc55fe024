package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"presensi/internal/anomaly"
	"presensi/internal/attendance"
	"presensi/internal/features"
)

// Options configures a full preprocessing run.
type Options struct {
	LabelVariant      attendance.LabelVariant
	FlagVariant       features.FlagVariant
	GateMode          anomaly.Mode
	Contamination     float64
	Seed              int64
	ActivityThreshold float64
	Concurrency       int
}

// DefaultOptions returns the production defaults: strict labeling, late
// streaks, post-engineering gating at 1% contamination, 10% activity
// threshold.
func DefaultOptions() Options {
	return Options{
		LabelVariant:      attendance.LabelStrict,
		FlagVariant:       features.FlagLate,
		GateMode:          anomaly.ModePost,
		Contamination:     0.01,
		Seed:              42,
		ActivityThreshold: attendance.DefaultActivityThresholdPct,
	}
}

// Result summarizes a completed pipeline run.
type Result struct {
	RunID    string                `json:"run_id"`
	Steps    []*StepState          `json:"steps"`
	Rows     []features.FeatureRow `json:"-"`
	Duration time.Duration         `json:"duration"`
}

// Runner executes the pipeline steps sequentially against a shared state.
// The batch either completes as a whole or fails with the offending step
// identified; there is nothing to retry in a pure transform over fixed
// input.
type Runner struct {
	steps  []Step
	tracer *RunTracer
	logger *slog.Logger
}

// NewRunner creates a runner over an explicit step list.
func NewRunner(steps []Step, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		steps:  steps,
		tracer: NewRunTracer(),
		logger: logger,
	}
}

// Build assembles the standard step sequence for the given options:
// label → (pre gate) → engineer → (post gate) → activity filter.
func Build(opts Options, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := features.NewEngine(opts.FlagVariant, logger)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	if opts.Concurrency > 0 {
		engine.SetConcurrency(opts.Concurrency)
	}

	steps := []Step{
		&LabelStep{Variant: opts.LabelVariant, Logger: logger},
	}

	if opts.GateMode != anomaly.ModeOff {
		forest, err := anomaly.NewIsolationForest(opts.Contamination, opts.Seed)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		gate := &GateStep{Gate: anomaly.NewGate(forest, logger), Mode: opts.GateMode}
		if opts.GateMode == anomaly.ModePre {
			steps = append(steps, gate, &EngineerStep{Engine: engine})
		} else {
			steps = append(steps, &EngineerStep{Engine: engine}, gate)
		}
	} else {
		steps = append(steps, &EngineerStep{Engine: engine})
	}

	steps = append(steps, &ActivityStep{ThresholdPct: opts.ActivityThreshold, Logger: logger})
	return NewRunner(steps, logger), nil
}

// Run executes every step in order and returns the final feature table.
func (r *Runner) Run(ctx context.Context, events []attendance.Event) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	state := NewState(events)

	ctx, runSpan := r.tracer.TraceRun(ctx, runID, len(events))
	defer runSpan.End()

	r.logger.InfoContext(ctx, "starting preprocessing run",
		slog.String("run_id", runID),
		slog.Int("input_rows", len(events)),
		slog.Int("steps", len(r.steps)),
	)

	result := &Result{RunID: runID}
	for _, step := range r.steps {
		stepState := NewStepState(step.ID(), step.Name())
		result.Steps = append(result.Steps, stepState)

		if err := step.Validate(state); err != nil {
			stepState.Fail(err)
			return result, fmt.Errorf("step %s: validate: %w", step.ID(), err)
		}

		stepCtx, span := r.tracer.TraceStep(ctx, runID, step.ID())
		stepState.Start()

		err := step.Execute(stepCtx, state)
		rowsOut := state.rowCount()
		RecordStepResult(span, stepState.Duration(), rowsOut, err)
		span.End()

		if err != nil {
			stepState.Fail(err)
			r.logger.ErrorContext(ctx, "pipeline step failed",
				slog.String("run_id", runID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()),
			)
			return result, fmt.Errorf("step %s: %w", step.ID(), err)
		}
		stepState.Complete(rowsOut)

		r.logger.InfoContext(ctx, "pipeline step completed",
			slog.String("run_id", runID),
			slog.String("step", step.ID()),
			slog.Int("rows_out", rowsOut),
			slog.Duration("elapsed", stepState.Duration()),
		)
	}

	result.Rows = state.Rows
	result.Duration = time.Since(start)

	r.logger.InfoContext(ctx, "preprocessing run completed",
		slog.String("run_id", runID),
		slog.Int("output_rows", len(result.Rows)),
		slog.Duration("elapsed", result.Duration),
	)
	return result, nil
}

// rowCount reports the current size of whichever table representation the
// pipeline has reached.
func (s *State) rowCount() int {
	if s.Rows != nil {
		return len(s.Rows)
	}
	return len(s.Events)
}

// roundRate rounds a presence rate to 2 decimals for reporting. The
// inclusion decision never uses the rounded value.
func roundRate(r float64) float64 {
	return math.Round(r*100) / 100
}
