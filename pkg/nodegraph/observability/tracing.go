package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the nodegraph tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("nodegraph")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEvaluateSpan starts a span for a top-level evaluation.
	StartEvaluateSpan(ctx context.Context, sessionID string, nodeID uint64) (context.Context, trace.Span)

	// StartPersistSpan starts a span for a snapshot save ("save") or load
	// ("load").
	StartPersistSpan(ctx context.Context, op, name string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEvaluateSpan starts a span for an evaluation.
func (m *otelSpanManager) StartEvaluateSpan(ctx context.Context, sessionID string, nodeID uint64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "nodegraph.evaluate",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int64("node.id", int64(nodeID)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartPersistSpan starts a span for a snapshot operation.
func (m *otelSpanManager) StartPersistSpan(ctx context.Context, op, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "nodegraph.snapshot."+op,
		trace.WithAttributes(
			attribute.String("snapshot.name", name),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the span in ctx.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
