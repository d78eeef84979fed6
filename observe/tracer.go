package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/callguard/resilience"
)

// CallTracer wraps protected operations in OpenTelemetry spans.
//
// Contract:
// - Concurrency: Wrap returns an operation safe for concurrent use if the
//   wrapped operation is.
// - Errors: the wrapped operation's error is recorded on the span and
//   propagated unchanged.
type CallTracer struct {
	tracer trace.Tracer
}

// NewCallTracer creates a CallTracer on the given tracer.
func NewCallTracer(t trace.Tracer) *CallTracer {
	return &CallTracer{tracer: t}
}

// Wrap returns an operation that runs op inside a span named after the
// resource. The span records the pipeline-assigned deadline implicitly
// through the context it receives.
func (t *CallTracer) Wrap(resource string, op resilience.Operation) resilience.Operation {
	return func(ctx context.Context) error {
		ctx, span := t.tracer.Start(ctx, "pipeline.call."+resource,
			trace.WithAttributes(attribute.String("resource", resource)),
			trace.WithSpanKind(trace.SpanKindClient),
		)

		err := op(ctx)

		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		return err
	}
}
