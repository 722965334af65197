package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Financial log operation counter
	LogOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_log_operations_total",
			Help: "Total number of financial log operations",
		},
		[]string{"operation"}, // "create", "update", "archive", "restore", etc.
	)

	// Dashboard view counter
	DashboardViewCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_dashboard_views_total",
			Help: "Total number of dashboard view requests",
		},
		[]string{"view"}, // "stats", "summary", "chart", "rankings", etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_token", "login_failure", "forbidden", etc.
	)

	// Attachment operation counter
	AttachmentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_attachment_operations_total",
			Help: "Total number of attachment operations",
		},
		[]string{"operation"}, // "upload", "delete", "orphaned_blob"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)

	// Aggregation duration
	AggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_aggregation_duration_seconds",
			Help:    "Duration of aggregation computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_info",
			Help: "Information about the ledger service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(LogOperationCounter)
	prometheus.MustRegister(DashboardViewCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AttachmentOperationCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(AggregationDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError increments the auth error counter for a failure type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// TrackAggregation measures aggregation computation durations
func TrackAggregation(view string) func() {
	startTime := time.Now()
	return func() {
		AggregationDuration.With(prometheus.Labels{
			"view": view,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(path, method, statusStr).Inc()
			RequestDuration.WithLabelValues(path, method, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
