package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lexforge/lexforge/internal/domain"
)

// Metrics holds the Prometheus instruments for engine calls.
type Metrics struct {
	requests *prometheus.CounterVec
	inFlight prometheus.Gauge
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the engine metrics with reg. Passing nil uses
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_requests_total",
				Help: "Generation calls by backend and outcome.",
			},
			[]string{"backend", "status"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_in_flight_requests",
				Help: "Generation calls currently active against the engine.",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_request_duration_seconds",
				Help:    "Generation call latency by backend.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
	}
}

// metricsCore wraps a backend with request accounting.
type metricsCore struct {
	next    Core
	metrics *Metrics
}

// MetricsMiddleware creates middleware that records request counts,
// in-flight gauge, and latency for every engine call.
func MetricsMiddleware(m *Metrics) Middleware {
	return func(next Core) Core {
		return &metricsCore{next: next, metrics: m}
	}
}

// DoGenerate executes the call while recording metrics. The status
// label distinguishes engine failure kinds so an unavailable shared
// resource is visible at a glance.
func (m *metricsCore) DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	m.metrics.inFlight.Inc()
	start := time.Now()

	raw, err := m.next.DoGenerate(ctx, prompt, grammar, cfg)

	m.metrics.inFlight.Dec()
	m.metrics.latency.WithLabelValues(m.next.Backend()).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
		if ee, ok := domain.AsEngineError(err); ok {
			status = ee.Kind.String()
		}
	}
	m.metrics.requests.WithLabelValues(m.next.Backend(), status).Inc()

	return raw, err
}

// Backend returns the backend name from the wrapped implementation.
func (m *metricsCore) Backend() string { return m.next.Backend() }

// Available delegates to the wrapped implementation.
func (m *metricsCore) Available(ctx context.Context) bool { return m.next.Available(ctx) }
