package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestObserveLoad(t *testing.T) {
	m := New()

	m.ObserveLoad(OutcomeLoaded, 120*time.Millisecond, 3)
	m.ObserveLoad(OutcomeDecode, 80*time.Millisecond, 0)
	m.ObserveLoad(OutcomeLoaded, 100*time.Millisecond, 5)

	body := scrape(t, m)
	assert.Contains(t, body, `friendbook_loads_total{outcome="loaded"} 2`)
	assert.Contains(t, body, `friendbook_loads_total{outcome="decode"} 1`)
	assert.Contains(t, body, `friendbook_load_duration_seconds_count 3`)
	assert.Contains(t, body, `friendbook_users_loaded 5`)
}

func TestMiddlewareRecordsRequest(t *testing.T) {
	m := New()

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/users")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, m)
	assert.Contains(t, body, `friendbook_http_requests_total{code="418",route="/api/users"} 1`)
	assert.Contains(t, body, `friendbook_http_request_duration_seconds_bucket{route="/api/users"`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveLoad(OutcomeLoaded, time.Second, 1)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}
