// Package metrics holds the prometheus collectors exported by the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tabletrack"

var (
	// HTTPRequests counts handled requests by method, route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration records request latency in seconds.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Operations counts production operations by outcome.
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "production_operations_total",
			Help:      "Total number of production operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// BatchesCreated counts created batches by how their items were materialized.
	BatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_created_total",
			Help:      "Total number of batches created, by recipe outcome",
		},
		[]string{"recipe"},
	)

	// ExpectedTablets accumulates the expected tablet count of created press runs.
	ExpectedTablets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expected_tablets_total",
			Help:      "Sum of expected tablet counts over created press runs",
		},
	)
)

// Outcome labels for Operations.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeStoreError = "storage_error"
)

// RecordOperation increments the operation counter.
func RecordOperation(operation, outcome string) {
	Operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveRequest records a finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
