// Package metrics registers the Prometheus instruments of the dashboard and the settings backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Upstream API calls
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_upstream_request_duration_seconds",
			Help:    "Duration of calls to the CMS and settings APIs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream", "method"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_upstream_errors_total",
			Help: "Total number of failed calls to the CMS and settings APIs",
		},
		[]string{"upstream", "method", "reason"},
	)

	UpstreamCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_upstream_coalesced_total",
			Help: "Total number of GET requests answered by an identical in-flight request",
		},
		[]string{"upstream"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_circuit_breaker_state",
			Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open)",
		},
		[]string{"upstream"},
	)

	// Sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Current number of dashboard sessions",
		},
	)

	UsageFlowConfirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_usage_flow_confirmations_total",
			Help: "Confirmed usage edits and deletes by level and outcome",
		},
		[]string{"level", "action", "outcome"},
	)

	// Settings backend storage
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settings_db_query_duration_seconds",
			Help:    "Duration of settings database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_db_query_errors_total",
			Help: "Total number of settings database query errors",
		},
		[]string{"operation"},
	)
)

// RecordUpstream records one upstream call; reason is empty on success
func RecordUpstream(upstream, method string, duration time.Duration, reason string) {
	UpstreamRequestDuration.WithLabelValues(upstream, method).Observe(duration.Seconds())
	if reason != "" {
		UpstreamErrors.WithLabelValues(upstream, method, reason).Inc()
	}
}

// RecordDBQuery records one settings database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordUsageConfirmation counts a confirmed usage flow action
func RecordUsageConfirmation(level, action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	UsageFlowConfirmations.WithLabelValues(level, action, outcome).Inc()
}

// Middleware records request counts and durations by route pattern
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
