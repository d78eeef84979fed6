// Package observe provides telemetry for the resilience pipeline.
//
// It bootstraps OpenTelemetry tracing and metrics providers with pluggable
// exporters (otlp, prometheus, stdout), ships a structured JSON logger, and
// exposes a Hook that plugs into resilience.Manager as its Observer,
// translating pipeline events into metrics and log lines.
//
// # Usage
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "payments",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer obs.Shutdown(ctx)
//
//	hook, err := observe.NewHook(obs)
//	if err != nil {
//	    return err
//	}
//	mgr := resilience.NewManager(resilience.WithObserver(hook))
package observe
