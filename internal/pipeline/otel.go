package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName identifies this instrumentation scope.
	TracerName = "presensi.pipeline"
)

// RunTracer provides OpenTelemetry spans for pipeline runs and steps.
type RunTracer struct {
	tracer trace.Tracer
}

// NewRunTracer creates a tracer for pipeline instrumentation.
func NewRunTracer() *RunTracer {
	return &RunTracer{tracer: otel.Tracer(TracerName)}
}

// TraceRun opens the span covering an entire pipeline run.
func (rt *RunTracer) TraceRun(ctx context.Context, runID string, inputRows int) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.Int("pipeline.input_rows", inputRows),
		),
	)
}

// TraceStep opens a span for one step execution.
func (rt *RunTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("pipeline.step.%s", stepID)
	return rt.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepResult closes out a step span with its outcome.
func RecordStepResult(span trace.Span, duration time.Duration, rowsOut int, err error) {
	span.SetAttributes(
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int("step.rows_out", rowsOut),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
