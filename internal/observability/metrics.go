package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	snapshotDuration *prometheus.HistogramVec
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_http_requests_total",
		Help: "Number of HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scout_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	snapshot := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scout_snapshot_build_duration_seconds",
		Help:    "Time spent building dashboard snapshots, by data quality.",
		Buckets: prometheus.DefBuckets,
	}, []string{"quality"})
	registry.MustRegister(requests, duration, snapshot)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		snapshotDuration: snapshot,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
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

// ObserveSnapshotBuild records how long a snapshot build took.
func (m *Metrics) ObserveSnapshotBuild(quality string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.snapshotDuration.WithLabelValues(quality).Observe(elapsed.Seconds())
}

// Registerer exposes the registry for registering custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
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
