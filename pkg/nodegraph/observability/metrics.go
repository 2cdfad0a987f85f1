package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Connect outcomes recorded by RecordConnect.
const (
	OutcomeConnected    = "connected"
	OutcomeDisconnected = "disconnected"
	OutcomeReconnected  = "reconnected"
	OutcomeRejected     = "rejected"
)

// MetricsRecorder records nodegraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvaluation records a top-level evaluation with its duration and
	// the number of node transforms it ran.
	RecordEvaluation(ctx context.Context, duration time.Duration, transforms int)

	// RecordConnect records a connect attempt and its outcome.
	RecordConnect(ctx context.Context, outcome string)

	// RecordParseFallback records a literal that fell back to a zero value.
	RecordParseFallback(ctx context.Context, kind string)

	// RecordPersist records a snapshot save or load.
	RecordPersist(ctx context.Context, op string, sizeBytes int64, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	evaluations    metric.Int64Counter
	evalLatency    metric.Float64Histogram
	evalTransforms metric.Int64Histogram
	connects       metric.Int64Counter
	parseFallbacks metric.Int64Counter
	persistSize    metric.Int64Histogram
	persistErrors  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily creates the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("nodegraph")

	evaluations, err := meter.Int64Counter("nodegraph.evaluate.count",
		metric.WithDescription("Number of top-level evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("nodegraph.evaluate.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalTransforms, err := meter.Int64Histogram("nodegraph.evaluate.transforms",
		metric.WithDescription("Node transforms run per evaluation"),
	)
	if err != nil {
		return nil, err
	}

	connects, err := meter.Int64Counter("nodegraph.connect.attempts",
		metric.WithDescription("Connect attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	parseFallbacks, err := meter.Int64Counter("nodegraph.literal.parse_fallbacks",
		metric.WithDescription("Literals replaced by a zero value"),
	)
	if err != nil {
		return nil, err
	}

	persistSize, err := meter.Int64Histogram("nodegraph.snapshot.size_bytes",
		metric.WithDescription("Snapshot size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	persistErrors, err := meter.Int64Counter("nodegraph.snapshot.errors",
		metric.WithDescription("Failed snapshot saves and loads"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		evaluations:    evaluations,
		evalLatency:    evalLatency,
		evalTransforms: evalTransforms,
		connects:       connects,
		parseFallbacks: parseFallbacks,
		persistSize:    persistSize,
		persistErrors:  persistErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEvaluation records an evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, transforms int) {
	m.evaluations.Add(ctx, 1)
	m.evalLatency.Record(ctx, float64(duration.Microseconds())/1000)
	m.evalTransforms.Record(ctx, int64(transforms))
}

// RecordConnect records a connect attempt.
func (m *otelMetrics) RecordConnect(ctx context.Context, outcome string) {
	m.connects.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordParseFallback records a parse fallback.
func (m *otelMetrics) RecordParseFallback(ctx context.Context, kind string) {
	m.parseFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordPersist records a snapshot operation.
func (m *otelMetrics) RecordPersist(ctx context.Context, op string, sizeBytes int64, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", op))
	if err != nil {
		m.persistErrors.Add(ctx, 1, attrs)
		return
	}
	m.persistSize.Record(ctx, sizeBytes, attrs)
}
