package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	sideEffectFailures     *prometheus.CounterVec
	marksEntriesSavedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marks_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marks_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		sideEffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marks_side_effect_failures_total",
			Help: "Best-effort side effects that failed (events, cache, timetable on create).",
		}, []string{"kind"})

		marksEntriesSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marks_entries_saved_total",
			Help: "Total number of marks sheet rows upserted.",
		})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, sideEffectFailures, marksEntriesSavedTotal)
	})
}

// HTTPRequests exposes the counter for HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// SideEffectFailures counts failed best-effort side effects by kind.
func SideEffectFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return sideEffectFailures
}

// MarksEntriesSaved counts upserted marks sheet rows.
func MarksEntriesSaved() prometheus.Counter {
	RegisterMetrics()
	return marksEntriesSavedTotal
}
