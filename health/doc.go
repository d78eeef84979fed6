// Package health reports the condition of the resilience pipeline for
// external health probes.
//
// PipelineChecker derives a health status from a resilience.Manager's guard
// snapshots: an open circuit marks the service unhealthy for that dependency,
// a half-open circuit marks it degraded. MemoryChecker watches the same heap
// signal the default load shedder uses. An Aggregator combines checkers and
// the HTTP handlers expose the combined status for liveness/readiness probes.
package health
