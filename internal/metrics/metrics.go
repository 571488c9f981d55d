package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	GanttParses    *prometheus.CounterVec
	ProjectsStored prometheus.Gauge
	RateLimited    prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		GanttParses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gantt_parse_total",
			Help: "PlantUML Gantt parse attempts by outcome (ok, syntax, semantic, validation).",
		}, []string{"outcome"}),

		ProjectsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "projects_stored",
			Help: "Number of projects currently held by the project repository.",
		}),

		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.GanttParses,
		m.ProjectsStored,
		m.RateLimited,
	)

	return m
}

// ObserveRequest records one completed HTTP request.
// route is the matched router pattern, never the raw path, to bound cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// ServiceHooks returns the metric callback functions expected by service.MetricHooks.
// Centralises the prometheus observation calls so the service stays import-free.
func (m *Metrics) ServiceHooks() (
	onParse func(outcome string),
	onStored func(total int),
) {
	onParse = func(outcome string) {
		m.GanttParses.WithLabelValues(outcome).Inc()
	}
	onStored = func(total int) {
		m.ProjectsStored.Set(float64(total))
	}
	return
}
