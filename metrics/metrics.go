// Package metrics exposes the Prometheus counters/histograms described in
// spec.md's data model §3 metrics section, grounded on
// original_source/src/common/metrics.py. Every Worker and HTTP handler
// shares one process-wide Registry instance.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every metric this service exports. It is safe for
// concurrent use, same as the underlying prometheus collectors.
type Registry struct {
	ExecutionsTotal    *prometheus.CounterVec
	ExecutionDuration  *prometheus.HistogramVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
	ActiveRequests     prometheus.Gauge
	QueueSize          prometheus.Gauge
	QueueTasksTotal    *prometheus.CounterVec
	WorkerActive       prometheus.Gauge
	WorkerTasksTotal   *prometheus.CounterVec
}

// New registers every metric against its own prometheus.Registerer,
// mirroring original_source's init_metrics. Pass prometheus.NewRegistry()
// for isolated tests, or prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderunner_code_executions_total",
			Help: "Total number of code executions, labeled by language and terminal status.",
		}, []string{"language", "status"}),

		ExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coderunner_code_execution_duration_seconds",
			Help:    "Duration of code executions in seconds, labeled by language and terminal status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"language", "status"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderunner_http_requests_total",
			Help: "Total HTTP requests, labeled by route, method and status code.",
		}, []string{"route", "method", "status"}),

		HTTPRequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coderunner_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, labeled by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		ActiveRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coderunner_active_requests",
			Help: "Number of HTTP requests currently being handled.",
		}),

		QueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coderunner_queue_size",
			Help: "Number of jobs currently pending in the task queue.",
		}),

		QueueTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderunner_queue_tasks_total",
			Help: "Total jobs ever pushed onto the task queue, labeled by language.",
		}, []string{"language"}),

		WorkerActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coderunner_worker_active",
			Help: "Number of worker processes currently running.",
		}),

		WorkerTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderunner_worker_tasks_total",
			Help: "Total jobs claimed and processed by workers, labeled by terminal status.",
		}, []string{"status"}),
	}
}

// RecordExecution updates the execution counters and histogram the way
// original_source's record_execution helper does.
func (r *Registry) RecordExecution(language, status string, durationSeconds float64) {
	r.ExecutionsTotal.WithLabelValues(language, status).Inc()
	r.ExecutionDuration.WithLabelValues(language, status).Observe(durationSeconds)
}

// RecordHTTPRequest updates the HTTP counters/latency histogram the way
// original_source's record_http_request helper does.
func (r *Registry) RecordHTTPRequest(route, method, status string, durationSeconds float64) {
	r.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	r.HTTPRequestLatency.WithLabelValues(route, method).Observe(durationSeconds)
}
