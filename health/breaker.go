package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/callguard/resilience"
)

// PipelineChecker reports health from a resilience.Manager's guard state.
// Any open circuit makes the result unhealthy; a half-open circuit (probing
// for recovery) makes it degraded; otherwise healthy.
type PipelineChecker struct {
	manager *resilience.Manager
}

// NewPipelineChecker creates a checker over the given manager.
func NewPipelineChecker(manager *resilience.Manager) *PipelineChecker {
	return &PipelineChecker{manager: manager}
}

// Name returns the name of this checker.
func (p *PipelineChecker) Name() string {
	return "resilience-pipeline"
}

// Check inspects every known resource's circuit state.
func (p *PipelineChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	snaps := p.manager.Snapshots()

	details := make(map[string]any, len(snaps))
	var open, halfOpen []string
	for _, s := range snaps {
		details[s.Resource] = map[string]any{
			"circuit_state":    s.CircuitState.String(),
			"failure_rate":     s.FailureRate,
			"active_bulkhead":  s.ActiveBulkhead,
			"available_tokens": s.AvailableTokens,
		}
		switch s.CircuitState {
		case resilience.StateOpen:
			open = append(open, s.Resource)
		case resilience.StateHalfOpen:
			halfOpen = append(halfOpen, s.Resource)
		}
	}

	switch {
	case len(open) > 0:
		return Unhealthy(fmt.Sprintf("%d circuit(s) open: %v", len(open), open), nil).
			WithDetails(details)
	case len(halfOpen) > 0:
		return Degraded(fmt.Sprintf("%d circuit(s) probing recovery: %v", len(halfOpen), halfOpen)).
			WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("all %d circuit(s) closed", len(snaps))).
			WithDetails(details)
	}
}
