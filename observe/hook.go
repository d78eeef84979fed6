package observe

import (
	"context"
	"errors"

	"github.com/jonwraymond/callguard/resilience"
)

// Hook translates resilience pipeline events into metrics and log lines.
// It implements resilience.Observer and is handed to a Manager via
// resilience.WithObserver.
type Hook struct {
	metrics PipelineMetrics
	logger  Logger
}

// NewHook creates a Hook backed by the Observer's meter and logger.
func NewHook(obs Observer) (*Hook, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewPipelineMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return &Hook{metrics: metrics, logger: obs.Logger()}, nil
}

// OnStateTransition records the circuit state change.
func (h *Hook) OnStateTransition(resource string, from, to resilience.State) {
	ctx := context.Background()
	h.metrics.RecordTransition(ctx, resource, from.String(), to.String())
	h.logger.WithResource(resource).Warn(ctx, "circuit state changed",
		Field{Key: "from", Value: from.String()},
		Field{Key: "to", Value: to.String()},
	)
}

// OnCallOutcome records the completed call attempt.
func (h *Hook) OnCallOutcome(resource string, outcome resilience.CallOutcome) {
	ctx := context.Background()
	h.metrics.RecordCall(ctx, resource, outcome.Latency, outcome.Success)
	h.logger.WithResource(resource).Debug(ctx, "call completed",
		Field{Key: "success", Value: outcome.Success},
		Field{Key: "duration_ms", Value: float64(outcome.Latency.Milliseconds())},
	)
}

// OnRejection records the guard rejection.
func (h *Hook) OnRejection(resource string, reason error) {
	ctx := context.Background()
	label := rejectionLabel(reason)
	h.metrics.RecordRejection(ctx, resource, label)
	h.logger.WithResource(resource).Warn(ctx, "call rejected",
		Field{Key: "reason", Value: label},
	)
}

// rejectionLabel maps sentinel rejection errors to stable metric labels.
func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, resilience.ErrLoadShed):
		return "load_shed"
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return "rate_limit"
	case errors.Is(err, resilience.ErrBulkheadFull):
		return "bulkhead_full"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, resilience.ErrTimeout):
		return "timeout"
	default:
		return "other"
	}
}

// Ensure Hook implements resilience.Observer
var _ resilience.Observer = (*Hook)(nil)
