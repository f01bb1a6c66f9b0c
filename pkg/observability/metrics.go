package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec

	// Business metrics
	UsersTotal          prometheus.Gauge
	InvitesActive       prometheus.Gauge
	InvitesIssuedTotal  prometheus.Counter
	InvitesExpiredTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardpost_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardpost_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardpost_store_operations_total",
				Help: "Total number of store load/save operations",
			},
			[]string{"store", "operation"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardpost_store_operation_duration_seconds",
				Help:    "Store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"store", "operation"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardpost_store_errors_total",
				Help: "Total number of store operation failures",
			},
			[]string{"store", "operation"},
		),
		UsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guardpost_users_total",
				Help: "Number of user records in the credential store",
			},
		),
		InvitesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guardpost_invites_active",
				Help: "Number of unconsumed, unexpired invitations",
			},
		),
		InvitesIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "guardpost_invites_issued_total",
				Help: "Total number of invitations issued",
			},
		),
		InvitesExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "guardpost_invites_expired_total",
				Help: "Total number of invitations removed after expiry",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
		m.UsersTotal,
		m.InvitesActive,
		m.InvitesIssuedTotal,
		m.InvitesExpiredTotal,
	)

	return m
}

// Handler returns an HTTP handler serving the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStoreOperation records a store operation with its duration and outcome
func (m *Metrics) ObserveStoreOperation(store, operation string, start time.Time, err error) {
	m.StoreOperationsTotal.WithLabelValues(store, operation).Inc()
	m.StoreOperationDuration.WithLabelValues(store, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrorsTotal.WithLabelValues(store, operation).Inc()
	}
}

// HTTPMiddleware records request counts and latencies per route
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
