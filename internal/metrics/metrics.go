package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Auth lifecycle metrics
	LoginsTotal        prometheus.CounterVec
	TokenRefreshTotal  prometheus.CounterVec
	RefreshReuseTotal  prometheus.CounterVec
	RegistrationsTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "inkwell_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "inkwell_http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),

			LoginsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_logins_total",
					Help: "Total login attempts by outcome",
				},
				[]string{"outcome"},
			),
			TokenRefreshTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_token_refresh_total",
					Help: "Total refresh token redemptions by outcome",
				},
				[]string{"outcome"},
			),
			RefreshReuseTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_refresh_reuse_total",
					Help: "Refresh tokens rejected because they were already rotated",
				},
				[]string{},
			),
			RegistrationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_registrations_total",
					Help: "Total accounts registered",
				},
				[]string{},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "inkwell_errors_total",
					Help: "Total API errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
