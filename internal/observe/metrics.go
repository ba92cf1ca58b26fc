// Package observe provides application-wide observability primitives for
// Protokoll: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Protokoll metrics.
const meterName = "github.com/protokoll-app/protokoll"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// SummaryDuration tracks LLM summary generation latency.
	SummaryDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts recognized utterances appended to the active note.
	// Use with attribute: attribute.String("language", ...)
	Utterances metric.Int64Counter

	// AudioChunks counts audio chunks forwarded to the recognition engine.
	AudioChunks metric.Int64Counter

	// EngineErrors counts recognition engine errors. Use with attribute:
	//   attribute.String("stage", ...)
	EngineErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveRecordings tracks the number of live recording sessions
	// (0 or 1 in practice).
	ActiveRecordings metric.Int64UpDownCounter
}

// summaryBuckets defines histogram bucket boundaries (in seconds) sized for
// LLM completion latencies.
var summaryBuckets = []float64{
	0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SummaryDuration, err = m.Float64Histogram("protokoll.summary.duration",
		metric.WithDescription("Latency of LLM summary generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(summaryBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("protokoll.utterances",
		metric.WithDescription("Total recognized utterances appended to the active note."),
	); err != nil {
		return nil, err
	}
	if met.AudioChunks, err = m.Int64Counter("protokoll.audio.chunks",
		metric.WithDescription("Total audio chunks forwarded to the recognition engine."),
	); err != nil {
		return nil, err
	}
	if met.EngineErrors, err = m.Int64Counter("protokoll.engine.errors",
		metric.WithDescription("Total recognition engine errors by pipeline stage."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRecordings, err = m.Int64UpDownCounter("protokoll.active_recordings",
		metric.WithDescription("Number of live recording sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordUtterance records a recognized utterance for the given language.
func (m *Metrics) RecordUtterance(ctx context.Context, language string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("language", language)),
	)
}

// RecordEngineError records a recognition engine error for the given
// pipeline stage.
func (m *Metrics) RecordEngineError(ctx context.Context, stage string) {
	m.EngineErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
