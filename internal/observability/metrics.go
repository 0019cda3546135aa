package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	submissionsTotal     *prometheus.CounterVec
	submissionLatency    *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	invalidationsDropped prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the rating gateway.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_submissions_total",
			Help: "Rating submissions by entity kind and terminal outcome.",
		}, []string{"entity_kind", "status"})

		submissionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rating_submission_latency_seconds",
			Help:    "Latency distribution of the rating submission pipeline.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"entity_kind"})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests served by the API.",
		}, []string{"method", "route", "status"})

		invalidationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_invalidations_dropped_total",
			Help: "Cache invalidation signals that could not be delivered.",
		})

		prometheus.MustRegister(submissionsTotal, submissionLatency, httpRequestsTotal, invalidationsDropped)
	})
}

// Submissions exposes the counter for submission outcomes.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// SubmissionLatency exposes the latency histogram for the submission pipeline.
func SubmissionLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return submissionLatency
}

// HTTPRequests exposes the counter for HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// InvalidationsDropped exposes the counter for undeliverable invalidation signals.
func InvalidationsDropped() prometheus.Counter {
	RegisterMetrics()
	return invalidationsDropped
}
