package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_requests_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// Film catalog and other upstream calls
	backendCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"service", "method", "status_code"},
	)

	// Catalog synchronisation
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_sync_runs_total",
			Help: "Total number of catalog synchronisation runs",
		},
		[]string{"trigger", "status"}, // schedule/manual, success/failure/skipped
	)

	syncInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "movies_sync_inserted_total",
			Help: "Total number of movies inserted by synchronisation",
		},
	)

	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movies_sync_duration_seconds",
			Help:    "Catalog synchronisation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"operation", "result"}, // register/login/refresh
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_cache_lookups_total",
			Help: "Movie list cache lookups",
		},
		[]string{"result"}, // hit/miss/error
	)

	// Redis metrics
	redisOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	redisOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	initOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			backendCallDuration,
			syncRunsTotal,
			syncInsertedTotal,
			syncDuration,
			circuitBreakerState,
			authAttemptsTotal,
			cacheLookupsTotal,
			redisOperationsTotal,
			redisOperationDuration,
		)
	})
	return nil
}

// HTTPMetricsMiddleware records HTTP metrics
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		method := c.Method()
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		statusCode := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, route, statusCode).Observe(duration)

		return err
	}
}

// RecordBackendCall records metrics for backend API calls
func RecordBackendCall(service, method string, statusCode int, duration time.Duration) {
	statusStr := strconv.Itoa(statusCode)
	backendCallDuration.WithLabelValues(service, method, statusStr).Observe(duration.Seconds())
}

// RecordSyncRun records the outcome of one synchronisation run
func RecordSyncRun(trigger, status string, inserted int, duration time.Duration) {
	syncRunsTotal.WithLabelValues(trigger, status).Inc()
	if inserted > 0 {
		syncInsertedTotal.Add(float64(inserted))
	}
	if status != "skipped" {
		syncDuration.Observe(duration.Seconds())
	}
}

// SetCircuitBreakerState publishes the state of a named circuit breaker
func SetCircuitBreakerState(name string, state float64) {
	circuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordAuthAttempt records register, login and refresh outcomes
func RecordAuthAttempt(operation, result string) {
	authAttemptsTotal.WithLabelValues(operation, result).Inc()
}

// RecordCacheLookup records movie list cache hits and misses
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordRedisOperation records Redis operations
func RecordRedisOperation(operation, status string, duration time.Duration) {
	redisOperationsTotal.WithLabelValues(operation, status).Inc()
	redisOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// PrometheusHandler returns the Prometheus metrics handler
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
