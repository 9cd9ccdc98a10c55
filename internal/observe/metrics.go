// Package observe provides application-wide observability primitives for
// VoxMenu: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VoxMenu metrics.
const meterName = "github.com/voxmenu/voxmenu"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TurnDuration tracks full dialog-turn processing latency, from raw
	// utterance to reply.
	TurnDuration metric.Float64Histogram

	// ExtractDuration tracks entity-extraction latency (normalization plus
	// fuzzy matching) per utterance.
	ExtractDuration metric.Float64Histogram

	// DelegateDuration tracks LLM fallback latency for turns the
	// deterministic pipeline could not answer.
	DelegateDuration metric.Float64Histogram

	// SinkDuration tracks order-sink append latency.
	SinkDuration metric.Float64Histogram

	// Turns counts processed dialog turns. Use with attribute:
	//   attribute.String("intent", ...)
	Turns metric.Int64Counter

	// PolicyDenials counts operations refused by the policy gate. Use with
	// attribute: attribute.String("reason", ...)
	PolicyDenials metric.Int64Counter

	// OrdersFinalized counts orders committed to the order sink.
	OrdersFinalized metric.Int64Counter

	// UnmatchedSpans counts dish spans that resolved to no menu item.
	UnmatchedSpans metric.Int64Counter

	// DelegateErrors counts LLM delegate failures. Use with attribute:
	//   attribute.String("provider", ...)
	DelegateErrors metric.Int64Counter

	// SinkErrors counts order-sink append failures.
	SinkErrors metric.Int64Counter

	// ActiveSessions tracks the number of live caller sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("voxmenu.turn.duration",
		metric.WithDescription("Latency of a full dialog turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtractDuration, err = m.Float64Histogram("voxmenu.extract.duration",
		metric.WithDescription("Latency of entity extraction per utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DelegateDuration, err = m.Float64Histogram("voxmenu.delegate.duration",
		metric.WithDescription("Latency of LLM delegate calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SinkDuration, err = m.Float64Histogram("voxmenu.sink.duration",
		metric.WithDescription("Latency of order sink appends."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("voxmenu.turns",
		metric.WithDescription("Total processed dialog turns by detected intent."),
	); err != nil {
		return nil, err
	}
	if met.PolicyDenials, err = m.Int64Counter("voxmenu.policy.denials",
		metric.WithDescription("Total operations refused by the policy gate, by reason."),
	); err != nil {
		return nil, err
	}
	if met.OrdersFinalized, err = m.Int64Counter("voxmenu.orders.finalized",
		metric.WithDescription("Total orders committed to the order sink."),
	); err != nil {
		return nil, err
	}
	if met.UnmatchedSpans, err = m.Int64Counter("voxmenu.extract.unmatched_spans",
		metric.WithDescription("Total dish spans that resolved to no menu item."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.DelegateErrors, err = m.Int64Counter("voxmenu.delegate.errors",
		metric.WithDescription("Total LLM delegate failures by provider."),
	); err != nil {
		return nil, err
	}
	if met.SinkErrors, err = m.Int64Counter("voxmenu.sink.errors",
		metric.WithDescription("Total order sink append failures."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxmenu.active_sessions",
		metric.WithDescription("Number of live caller sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxmenu.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn records one processed dialog turn with the detected intent.
func (m *Metrics) RecordTurn(ctx context.Context, intent string) {
	m.Turns.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// RecordPolicyDenial records one refused operation with its deny reason.
func (m *Metrics) RecordPolicyDenial(ctx context.Context, reason string) {
	m.PolicyDenials.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordDelegateError records one LLM delegate failure for a provider.
func (m *Metrics) RecordDelegateError(ctx context.Context, provider string) {
	m.DelegateErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}
