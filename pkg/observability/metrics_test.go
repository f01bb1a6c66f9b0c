package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users", "200").Inc()
	m.UsersTotal.Set(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/users", "200")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.UsersTotal))
}

func TestObserveStoreOperation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveStoreOperation("users", "load", time.Now(), nil)
	m.ObserveStoreOperation("users", "load", time.Now(), errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("users", "load")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreErrorsTotal.WithLabelValues("users", "load")))
}

func TestHTTPMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/missing", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/missing", "404")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.InvitesIssuedTotal.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "guardpost_invites_issued_total 1")
}
