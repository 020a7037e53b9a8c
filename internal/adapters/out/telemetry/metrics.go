// Package telemetry exposes edge routing metrics in the Prometheus format.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/domain"
)

// Ensure Metrics implements out.RouteMetrics.
var _ out.RouteMetrics = (*Metrics)(nil)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics holds the edge's Prometheus instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	decisions     *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	fallthroughs  *prometheus.CounterVec
	rateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all instruments, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previewgate",
			Subsystem: "edge",
			Name:      "decisions_total",
			Help:      "Routed requests by decision and preview tag",
		}, []string{"decision", "preview_type"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "previewgate",
			Subsystem: "edge",
			Name:      "decision_duration_seconds",
			Help:      "Time from request arrival to routed response",
			Buckets:   histogramBuckets,
		}, []string{"decision"}),
		fallthroughs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previewgate",
			Subsystem: "edge",
			Name:      "sandbox_fallthrough_total",
			Help:      "Sandbox misses that fell through to dispatch, by reason",
		}, []string{"reason"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "previewgate",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited API responses, by exhausted budget",
		}, []string{"scope"}),
	}

	m.registry.MustRegister(
		m.decisions,
		m.latency,
		m.fallthroughs,
		m.rateLimitHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDecision records one routed request.
func (m *Metrics) ObserveDecision(decision domain.RoutingDecision, tag domain.PreviewType, elapsed time.Duration) {
	m.decisions.WithLabelValues(decision.String(), string(tag)).Inc()
	m.latency.WithLabelValues(decision.String()).Observe(elapsed.Seconds())
}

// SandboxFallthrough records a sandbox miss.
func (m *Metrics) SandboxFallthrough(reason string) {
	m.fallthroughs.WithLabelValues(reason).Inc()
}

// RateLimited records a 429 refused by the scope budget.
func (m *Metrics) RateLimited(scope string) {
	m.rateLimitHits.WithLabelValues(scope).Inc()
}

// Handler serves the exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
