package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exposed metric names.
const (
	MetricHTTPRequestsTotal     = "http_requests_total"
	MetricHTTPRequestDuration   = "http_request_duration_seconds"
	MetricHTTPRequestSizeBytes  = "http_request_size_bytes"
	MetricHTTPResponseSizeBytes = "http_response_size_bytes"
	MetricRateLimitChecks       = "rate_limit_checks_total"
	MetricRateLimitBlocked      = "rate_limit_blocked_total"
	MetricRateLimitStoreErrors  = "rate_limit_store_errors_total"
)

var (
	httpLabels      = []string{"method", "route", "status"}
	rateLimitLabels = []string{"scope", "route"}

	// Search responses are small JSON documents; 64 B .. 1 MiB.
	sizeBuckets = prometheus.ExponentialBuckets(64, 4, 8)
	// Catalog searches finish in milliseconds, upstream-backed ones in seconds.
	latencyBuckets = []float64{0.001, 0.005, 0.025, 0.1, 0.25, 1, 2.5, 5}
)

// Metrics holds the collectors for the HTTP and rate limit middleware. The
// zero value is not usable; build it with NewMetrics and attach it to a
// registry with Register.
type Metrics struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	requestSize  *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec

	limitChecks  *prometheus.CounterVec
	limitBlocked *prometheus.CounterVec
	storeErrors  prometheus.Counter
}

// NewMetrics builds unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "API requests by method, route and status.",
		}, httpLabels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "API request latency in seconds.",
			Buckets: latencyBuckets,
		}, httpLabels),
		requestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestSizeBytes,
			Help:    "Declared request body size in bytes.",
			Buckets: sizeBuckets,
		}, httpLabels),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPResponseSizeBytes,
			Help:    "Response body size in bytes.",
			Buckets: sizeBuckets,
		}, httpLabels),
		limitChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRateLimitChecks,
			Help: "Rate limit decisions by limiter scope and route.",
		}, rateLimitLabels),
		limitBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRateLimitBlocked,
			Help: "Requests rejected with 429 by limiter scope and route.",
		}, rateLimitLabels),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRateLimitStoreErrors,
			Help: "Rate limit store failures; each one let a request through unchecked.",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors lists the collectors in registration order.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requests,
		m.latency,
		m.requestSize,
		m.responseSize,
		m.limitChecks,
		m.limitBlocked,
		m.storeErrors,
	}
}

// ObserveHTTPRequest records one finished request. route is a label from
// RouteOf, never a raw path.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, seconds float64, requestBytes, responseBytes int64) {
	m.requests.WithLabelValues(method, route, status).Inc()
	m.latency.WithLabelValues(method, route, status).Observe(seconds)
	m.requestSize.WithLabelValues(method, route, status).Observe(float64(requestBytes))
	m.responseSize.WithLabelValues(method, route, status).Observe(float64(responseBytes))
}

// ObserveRateLimit records one limiter decision.
func (m *Metrics) ObserveRateLimit(scope, route string, allowed bool) {
	m.limitChecks.WithLabelValues(scope, route).Inc()
	if !allowed {
		m.limitBlocked.WithLabelValues(scope, route).Inc()
	}
}

// IncRateLimitStoreErrors counts a fail-open decision.
func (m *Metrics) IncRateLimitStoreErrors() {
	m.storeErrors.Inc()
}
