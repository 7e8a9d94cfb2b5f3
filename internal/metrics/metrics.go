package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perfgate/internal/adapter"
	"perfgate/internal/alert"
)

// Metrics holds the pipeline's Prometheus metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	IterationsTotal   *prometheus.CounterVec
	IterationDuration prometheus.Histogram
	ParseFailures     *prometheus.CounterVec
	AlertsTotal       *prometheus.CounterVec
	ReportsTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfgate_iterations_total",
			Help: "Benchmark iterations run, by outcome",
		},
		[]string{"status"},
	)

	m.IterationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "perfgate_iteration_duration_seconds",
			Help:    "Wall time of a benchmark iteration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		},
	)

	m.ParseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfgate_parse_failures_total",
			Help: "Harness outputs that could not be parsed, by adapter",
		},
		[]string{"adapter"},
	)

	m.AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfgate_alerts_total",
			Help: "Alerts raised, by boundary side",
		},
		[]string{"side"},
	)

	m.ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfgate_reports_total",
			Help: "Reports assembled, by destination",
		},
		[]string{"destination"},
	)

	m.Registry.MustRegister(
		m.IterationsTotal,
		m.IterationDuration,
		m.ParseFailures,
		m.AlertsTotal,
		m.ReportsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// IterationDone records one finished iteration.
func (m *Metrics) IterationDone(ok bool, elapsed time.Duration) {
	status := "success"
	if !ok {
		status = "failure"
	}
	m.IterationsTotal.WithLabelValues(status).Inc()
	m.IterationDuration.Observe(elapsed.Seconds())
}

// ParseFailed records output the adapter could not parse.
func (m *Metrics) ParseFailed(kind adapter.Kind) {
	m.ParseFailures.WithLabelValues(string(kind)).Inc()
}

// RecordAlerts counts alerts by side.
func (m *Metrics) RecordAlerts(alerts []alert.Alert) {
	for _, a := range alerts {
		m.AlertsTotal.WithLabelValues(string(a.Side)).Inc()
	}
}

// ReportSent records a report handed to destination ("dry_run", "local" or
// "http").
func (m *Metrics) ReportSent(destination string) {
	m.ReportsTotal.WithLabelValues(destination).Inc()
}

// Handler returns the Prometheus HTTP handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
