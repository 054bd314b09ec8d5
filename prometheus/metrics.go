package prometheus

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"directory-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultPrefix = "directory"

var (
	// HTTP request metrics
	HttpRequestsTotal     *prometheus.CounterVec
	HttpRequestDuration   *prometheus.HistogramVec
	StatusCategoryCounter *prometheus.CounterVec

	// Authentication metrics
	AuthSuccessCounter *prometheus.CounterVec
	AuthErrorsCounter  *prometheus.CounterVec
	AdminGateCounter   *prometheus.CounterVec

	// OTP metrics
	OTPIssuedCounter      *prometheus.CounterVec
	OTPValidationCounter  *prometheus.CounterVec
	OTPRateLimitedCounter *prometheus.CounterVec
	NotificationCounter   *prometheus.CounterVec

	// Directory and catalog metrics
	EntityOperationsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec
)

func init() {
	// unregistered collectors so recorders are always safe to call
	build(defaultPrefix)
}

// build (re)creates every collector under the given prefix and returns them
func build(prefix string) []prometheus.Collector {
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"category"},
	)

	AuthSuccessCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentication flows",
		},
		[]string{"flow"},
	)

	AuthErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		},
		[]string{"reason"},
	)

	AdminGateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_admin_gate_total",
			Help: "Admin gate decisions by result",
		},
		[]string{"result"},
	)

	OTPIssuedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_otp_issued_total",
			Help: "Total number of OTP codes issued",
		},
		[]string{"purpose"},
	)

	OTPValidationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_otp_validations_total",
			Help: "OTP validation attempts by purpose and result",
		},
		[]string{"purpose", "result"},
	)

	OTPRateLimitedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_otp_rate_limited_total",
			Help: "OTP requests rejected by the rate limiter",
		},
		[]string{"purpose"},
	)

	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_total",
			Help: "OTP notifications by driver and result",
		},
		[]string{"driver", "result"},
	)

	EntityOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Directory and catalog operations by entity and operation",
		},
		[]string{"entity", "operation"},
	)

	DbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	return []prometheus.Collector{
		HttpRequestsTotal, HttpRequestDuration, StatusCategoryCounter,
		AuthSuccessCounter, AuthErrorsCounter, AdminGateCounter,
		OTPIssuedCounter, OTPValidationCounter, OTPRateLimitedCounter, NotificationCounter,
		EntityOperationsCounter, DbOperationDuration,
	}
}

// InitMetrics builds the collectors with the configured prefix and registers them
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	prometheus.MustRegister(build(prefix)...)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthError increments the auth error counter for reason
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordAuthSuccess increments the auth success counter for flow
func RecordAuthSuccess(flow string) {
	AuthSuccessCounter.WithLabelValues(flow).Inc()
}

// RecordAdminGate records an admin gate decision
func RecordAdminGate(result string) {
	AdminGateCounter.WithLabelValues(result).Inc()
}

// RecordOTPIssued increments the issued counter for purpose
func RecordOTPIssued(purpose string) {
	OTPIssuedCounter.WithLabelValues(purpose).Inc()
}

// RecordOTPValidation records a validation outcome
func RecordOTPValidation(purpose string, ok bool) {
	result := "rejected"
	if ok {
		result = "accepted"
	}
	OTPValidationCounter.WithLabelValues(purpose, result).Inc()
}

// RecordOTPRateLimited increments the rate limited counter for purpose
func RecordOTPRateLimited(purpose string) {
	OTPRateLimitedCounter.WithLabelValues(purpose).Inc()
}

// RecordNotification records an OTP delivery attempt
func RecordNotification(driver string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	NotificationCounter.WithLabelValues(driver, result).Inc()
}

// RecordEntityOperation increments the counter for an entity operation
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// MetricsMiddleware records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HttpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
			HttpRequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())
			if category := statusCategory(status); category != "" {
				StatusCategoryCounter.WithLabelValues(category).Inc()
			}

			return err
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
