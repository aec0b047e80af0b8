// Package metrics provides Prometheus metrics for the relay and the retrieval service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat stream outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics holds the Prometheus collectors for one process.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ChatStreamsTotal    *prometheus.CounterVec
	StreamedChunksTotal prometheus.Counter
	RetrievalCallsTotal *prometheus.CounterVec

	BackgroundTasksTotal *prometheus.CounterVec

	MemoryOperationsTotal   *prometheus.CounterVec
	MemoryOperationDuration *prometheus.HistogramVec
}

// New creates a registry with the Go and process collectors plus all
// application metrics under the given namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds, including streamed bodies",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"route"},
		),
		ChatStreamsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_streams_total",
				Help:      "Total number of chat completions by outcome",
			},
			[]string{"outcome"},
		),
		StreamedChunksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streamed_chunks_total",
				Help:      "Total number of generated text chunks forwarded to callers",
			},
		),
		RetrievalCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_calls_total",
				Help:      "Total number of calls to the retrieval service",
			},
			[]string{"operation", "status"},
		),
		BackgroundTasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "background_tasks_total",
				Help:      "Total number of background tasks by result",
			},
			[]string{"task", "status"},
		),
		MemoryOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memory_operations_total",
				Help:      "Total number of memory store operations",
			},
			[]string{"operation", "status"},
		),
		MemoryOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "memory_operation_duration_seconds",
				Help:      "Duration of memory store operations in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveChat records the outcome of one chat completion.
func (m *Metrics) ObserveChat(outcome string, chunks int) {
	if m == nil {
		return
	}
	m.ChatStreamsTotal.WithLabelValues(outcome).Inc()
	m.StreamedChunksTotal.Add(float64(chunks))
}

// ObserveRetrieval records one call to the retrieval service.
func (m *Metrics) ObserveRetrieval(operation string, err error) {
	if m == nil {
		return
	}
	m.RetrievalCallsTotal.WithLabelValues(operation, status(err)).Inc()
}

// ObserveTask records the result of a background task.
func (m *Metrics) ObserveTask(task string, err error) {
	if m == nil {
		return
	}
	m.BackgroundTasksTotal.WithLabelValues(task, status(err)).Inc()
}

// ObserveMemory records one memory store operation.
func (m *Metrics) ObserveMemory(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.MemoryOperationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.MemoryOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
