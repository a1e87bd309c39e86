package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets    = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	backendDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// Metrics holds all Prometheus metric instruments for the server.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Backend invocation metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration prometheus.Histogram

	// Form engine metrics
	FormSessionsOpened  *prometheus.CounterVec
	FormSessionsActive  prometheus.Gauge
	FormSubmitsTotal    *prometheus.CounterVec
	PropagationCycles   *prometheus.CounterVec
	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	// Lookup cache metrics
	LookupCacheHitsTotal   *prometheus.CounterVec
	LookupCacheMissesTotal *prometheus.CounterVec

	// System metrics
	DefinitionReloadTotal *prometheus.CounterVec
	DefinitionsLoaded     prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_backend_requests_total",
			Help: "Total number of storefront API requests.",
		}, []string{"method", "status"}),
		BackendRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopdesk_backend_request_duration_seconds",
			Help:    "Storefront API request duration in seconds.",
			Buckets: backendDurationBuckets,
		}),

		FormSessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_form_sessions_opened_total",
			Help: "Total number of opened form sessions.",
		}, []string{"form_id", "mode"}),
		FormSessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shopdesk_form_sessions_active",
			Help: "Number of live form sessions.",
		}),
		FormSubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_form_submits_total",
			Help: "Total number of form submissions.",
		}, []string{"form_id", "outcome"}),
		PropagationCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_form_propagation_cycles_total",
			Help: "Total number of field connection propagation cycles.",
		}, []string{"form_id"}),
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_form_calculations_total",
			Help: "Total number of field calculations.",
		}, []string{"calculator", "outcome"}),
		CalculationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopdesk_form_calculation_duration_seconds",
			Help:    "Field calculation duration in seconds.",
			Buckets: backendDurationBuckets,
		}, []string{"calculator"}),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_commands_total",
			Help: "Total number of command executions.",
		}, []string{"command_id", "outcome"}),

		LookupCacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_lookup_cache_hits_total",
			Help: "Total lookup cache hits.",
		}, []string{"lookup_id"}),
		LookupCacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_lookup_cache_misses_total",
			Help: "Total lookup cache misses.",
		}, []string{"lookup_id"}),

		DefinitionReloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopdesk_definition_reload_total",
			Help: "Total definition reloads.",
		}, []string{"status"}),
		DefinitionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shopdesk_definitions_loaded",
			Help: "Number of loaded domain definitions.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.FormSessionsOpened,
		m.FormSessionsActive,
		m.FormSubmitsTotal,
		m.PropagationCycles,
		m.CalculationsTotal,
		m.CalculationDuration,
		m.CommandsTotal,
		m.LookupCacheHitsTotal,
		m.LookupCacheMissesTotal,
		m.DefinitionReloadTotal,
		m.DefinitionsLoaded,
	)

	return m
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordBackendRequest records a storefront API request.
func (m *Metrics) RecordBackendRequest(method string, status int, duration time.Duration) {
	m.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.BackendRequestDuration.Observe(duration.Seconds())
}

// RecordLookupCacheHit records a lookup cache hit.
func (m *Metrics) RecordLookupCacheHit(lookupID string) {
	m.LookupCacheHitsTotal.WithLabelValues(lookupID).Inc()
}

// RecordLookupCacheMiss records a lookup cache miss.
func (m *Metrics) RecordLookupCacheMiss(lookupID string) {
	m.LookupCacheMissesTotal.WithLabelValues(lookupID).Inc()
}

// RecordDefinitionReload records a definition reload attempt.
func (m *Metrics) RecordDefinitionReload(status string) {
	m.DefinitionReloadTotal.WithLabelValues(status).Inc()
}

// SetDefinitionsLoaded sets the number of loaded domain definitions.
func (m *Metrics) SetDefinitionsLoaded(count float64) {
	m.DefinitionsLoaded.Set(count)
}

// MetricsMiddleware returns HTTP middleware that records request metrics
// using chi's route pattern (not the raw URL path) to avoid label
// cardinality explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
