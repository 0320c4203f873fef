package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_api"

// Metrics holds the Prometheus collectors for the HTTP surface and the
// dataset sessions behind it.
type Metrics struct {
	Registry prometheus.Gatherer

	HTTPRequests        *prometheus.CounterVec   // labels: route, code
	HTTPRequestDuration *prometheus.HistogramVec // labels: route
	DBSessionsOpen      prometheus.Gauge
	DBSessionsTotal     prometheus.Counter
}

func newCollectors() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by matched route and status code.",
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by matched route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
		DBSessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_sessions_open",
			Help:      "Request-scoped dataset connections currently held.",
		}),
		DBSessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_sessions_total",
			Help:      "Request-scoped dataset connections acquired.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.DBSessionsOpen,
		m.DBSessionsTotal,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(m.collectors()...)
	m.Registry = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting registers the metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newCollectors()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.Registry = reg
	return m
}

// SessionOpened implements repository.SessionObserver.
func (m *Metrics) SessionOpened() {
	m.DBSessionsOpen.Inc()
	m.DBSessionsTotal.Inc()
}

// SessionClosed implements repository.SessionObserver.
func (m *Metrics) SessionClosed() {
	m.DBSessionsOpen.Dec()
}
