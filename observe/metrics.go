package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics records resilience pipeline activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type PipelineMetrics interface {
	// RecordCall records a completed call attempt.
	RecordCall(ctx context.Context, resource string, duration time.Duration, success bool)

	// RecordRejection records a guard rejection with its reason.
	RecordRejection(ctx context.Context, resource, reason string)

	// RecordTransition records a circuit breaker state change.
	RecordTransition(ctx context.Context, resource, from, to string)
}

// pipelineMetrics is the concrete implementation of PipelineMetrics.
type pipelineMetrics struct {
	callCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	rejectCount  metric.Int64Counter
	transitions  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewPipelineMetrics creates a PipelineMetrics instance on the given meter.
func NewPipelineMetrics(meter metric.Meter) (PipelineMetrics, error) {
	callCount, err := meter.Int64Counter(
		"pipeline.calls.total",
		metric.WithDescription("Total number of completed call attempts"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"pipeline.calls.errors",
		metric.WithDescription("Total number of failed call attempts"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	rejectCount, err := meter.Int64Counter(
		"pipeline.rejections.total",
		metric.WithDescription("Total number of guard rejections"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"pipeline.circuit.transitions",
		metric.WithDescription("Total number of circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"pipeline.call.duration_ms",
		metric.WithDescription("Call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &pipelineMetrics{
		callCount:    callCount,
		errorCount:   errorCount,
		rejectCount:  rejectCount,
		transitions:  transitions,
		durationHist: durationHist,
	}, nil
}

func (m *pipelineMetrics) RecordCall(ctx context.Context, resource string, duration time.Duration, success bool) {
	opt := metric.WithAttributes(attribute.String("resource", resource))

	m.callCount.Add(ctx, 1, opt)
	if !success {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *pipelineMetrics) RecordRejection(ctx context.Context, resource, reason string) {
	m.rejectCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("reason", reason),
	))
}

func (m *pipelineMetrics) RecordTransition(ctx context.Context, resource, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// noopMetrics is a PipelineMetrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordCall(context.Context, string, time.Duration, bool) {}
func (noopMetrics) RecordRejection(context.Context, string, string)        {}
func (noopMetrics) RecordTransition(context.Context, string, string, string) {
}
