package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Entity writes by entity type and outcome
	entityWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_entity_writes_total",
			Help: "Total number of repository writes by entity and outcome",
		},
		[]string{"entity", "operation", "outcome"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentboard_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentboard_login_attempts_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)
)

// StatusClass buckets an HTTP status code
func StatusClass(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	}
	return "unknown"
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, StatusClass(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordEntityWrite records the outcome of a create, update or delete.
// outcome is "ok" or an error kind such as "constraint_violation".
func RecordEntityWrite(entity, operation, outcome string) {
	entityWritesTotal.WithLabelValues(entity, operation, outcome).Inc()
}

// RecordRateLimited counts a rejected request
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// RecordLogin counts a login attempt; result is "success" or "failure"
func RecordLogin(result string) {
	loginAttemptsTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
