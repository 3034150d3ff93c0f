package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the fetch and scan pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchAttempts *prometheus.CounterVec
	FetchOutcomes *prometheus.CounterVec
	BreakerState  prometheus.Gauge

	ScanDuration prometheus.Histogram
	Scored       *prometheus.CounterVec
	Skipped      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agromonitor_fetch_attempts_total",
				Help: "Upstream fetch attempts by payload kind and result",
			},
			[]string{"kind", "result"},
		),

		FetchOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agromonitor_fetch_outcomes_total",
				Help: "Final fetch outcomes after retries by payload kind and status",
			},
			[]string{"kind", "status"},
		),

		BreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agromonitor_breaker_state",
				Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),

		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agromonitor_scan_duration_seconds",
				Help:    "Duration of a full catalog scan in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		Scored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agromonitor_instruments_scored_total",
				Help: "Instruments ranked by category",
			},
			[]string{"category"},
		),

		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agromonitor_instruments_skipped_total",
				Help: "Instruments left out of the ranking by reason",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		m.FetchAttempts,
		m.FetchOutcomes,
		m.BreakerState,
		m.ScanDuration,
		m.Scored,
		m.Skipped,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Attempt(kind, result string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Outcome(kind, status string) {
	if m == nil {
		return
	}
	m.FetchOutcomes.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Breaker(state int) {
	if m == nil {
		return
	}
	m.BreakerState.Set(float64(state))
}

func (m *Metrics) ScanSeconds(s float64) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(s)
}

func (m *Metrics) Ranked(category string) {
	if m == nil {
		return
	}
	m.Scored.WithLabelValues(category).Inc()
}

func (m *Metrics) Skip(reason string) {
	if m == nil {
		return
	}
	m.Skipped.WithLabelValues(reason).Inc()
}
