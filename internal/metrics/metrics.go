// Package metrics holds the Prometheus collectors of flowstudio.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowstudio"

// Collector groups every metric behind its own registry, so that several
// collectors can coexist (one per test, one per server).
type Collector struct {
	registry *prometheus.Registry

	// Execution
	Runs         *prometheus.CounterVec // outcome: completed|failed|cancelled|rejected
	ActiveRuns   prometheus.Gauge
	ConsoleLines *prometheus.CounterVec // kind: info|error|chunk

	// Dev server
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Repositories
	RepoOperations *prometheus.CounterVec
}

// New creates a Collector with Go runtime and process collectors registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Flow runs by outcome.",
		}, []string{"outcome"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Runs currently streaming.",
		}),
		ConsoleLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_lines_total",
			Help:      "Console lines appended by kind.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dev server requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Dev server request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RepoOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_operations_total",
			Help:      "Repository operations by backend, operation and result.",
		}, []string{"backend", "operation", "result"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.Runs, c.ActiveRuns, c.ConsoleLines,
		c.HTTPRequests, c.HTTPDuration,
		c.RepoOperations,
	)
	return c
}

// Registry exposes the underlying registry (for tests and custom exporters).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveRequest records one served request.
func (c *Collector) ObserveRequest(method, route, status string, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveRepo records one repository operation.
func (c *Collector) ObserveRepo(backend, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.RepoOperations.WithLabelValues(backend, operation, result).Inc()
}
