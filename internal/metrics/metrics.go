// Package metrics collects Prometheus metrics for loads and for the HTTP
// surface of serve mode.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	loadsTotal      *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	usersLoaded     prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New initializes the registry and every metric.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "friendbook_loads_total",
		Help: "Number of finished load attempts by outcome.",
	}, []string{"outcome"})
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "friendbook_load_duration_seconds",
		Help:    "Duration of load attempts, fetch and decode included.",
		Buckets: prometheus.DefBuckets,
	})
	users := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "friendbook_users_loaded",
		Help: "Number of users held after the last successful load.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "friendbook_http_requests_total",
		Help: "Number of HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "friendbook_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	registry.MustRegister(loads, loadDuration, users, requests, duration)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		loadsTotal:      loads,
		loadDuration:    loadDuration,
		usersLoaded:     users,
		requestsTotal:   requests,
		requestDuration: duration,
	}
}

// ObserveLoad records one finished load attempt. users is ignored unless the
// outcome is a successful load.
func (m *Metrics) ObserveLoad(outcome string, duration time.Duration, users int) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(outcome).Inc()
	m.loadDuration.Observe(duration.Seconds())
	if outcome == OutcomeLoaded {
		m.usersLoaded.Set(float64(users))
	}
}

// Load outcomes.
const (
	OutcomeLoaded     = "loaded"
	OutcomeInvalidURL = "invalid_url"
	OutcomeTransport  = "transport"
	OutcomeDecode     = "decode"
	OutcomeCanceled   = "canceled"
)

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and duration of every HTTP request, labelled by
// the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
