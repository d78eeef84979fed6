package observe

import (
	"context"
	"io"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

// BenchmarkLogger_Info measures logging throughput.
func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "benchmark message", Field{Key: "iteration", Value: i})
	}
}

// BenchmarkLogger_Info_MultipleFields measures logging with multiple fields.
func BenchmarkLogger_Info_MultipleFields(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()
	fields := []Field{
		{Key: "resource", Value: "payments"},
		{Key: "latency_ms", Value: 42},
		{Key: "success", Value: true},
		{Key: "failure_rate", Value: 3.14},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "benchmark message", fields...)
	}
}

// BenchmarkLogger_WithResource measures creating resource-scoped loggers.
func BenchmarkLogger_WithResource(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = logger.WithResource("payments")
	}
}

// BenchmarkLogger_FilteredLevel measures the cost of a suppressed log call.
func BenchmarkLogger_FilteredLevel(b *testing.B) {
	logger := NewLoggerWithWriter("error", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "suppressed message")
	}
}

// BenchmarkPipelineMetrics_RecordCall measures call recording overhead
// against a noop meter.
func BenchmarkPipelineMetrics_RecordCall(b *testing.B) {
	metrics, err := NewPipelineMetrics(noop.NewMeterProvider().Meter("bench"))
	if err != nil {
		b.Fatalf("NewPipelineMetrics() error = %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		metrics.RecordCall(ctx, "payments", 5*time.Millisecond, true)
	}
}

// BenchmarkPipelineMetrics_RecordRejection measures rejection recording.
func BenchmarkPipelineMetrics_RecordRejection(b *testing.B) {
	metrics, err := NewPipelineMetrics(noop.NewMeterProvider().Meter("bench"))
	if err != nil {
		b.Fatalf("NewPipelineMetrics() error = %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		metrics.RecordRejection(ctx, "payments", "circuit_open")
	}
}
