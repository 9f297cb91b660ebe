// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "nutriplan"

// MetricsCollector handles Prometheus metrics collection. All recording
// methods are safe to call on a nil collector.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitedTotal    prometheus.Counter

	// Pipeline metrics
	plansTotal            *prometheus.CounterVec
	upstreamRequestsTotal *prometheus.CounterVec
	upstreamDuration      *prometheus.HistogramVec
	nutritionLookupsTotal *prometheus.CounterVec
	documentsTotal        *prometheus.CounterVec
	documentSize          prometheus.Histogram
	cacheOperations       *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
		rateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),

		plansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plans_generated_total",
				Help:      "Diet plan generations by outcome",
			},
			[]string{"outcome"},
		),
		upstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Calls to external APIs by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "External API call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"service"},
		),
		nutritionLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nutrition_lookups_total",
				Help:      "Nutrition lookups by outcome",
			},
			[]string{"outcome"},
		),
		documentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_rendered_total",
				Help:      "Document renders by outcome",
			},
			[]string{"outcome"},
		),
		documentSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_size_bytes",
				Help:      "Size of rendered documents",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 10),
			},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
	}
}

// HTTPMiddleware records request counts and latency per chi route pattern
func (m *MetricsCollector) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RateLimited counts a request rejected by the limiter
func (m *MetricsCollector) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

// PlanGenerated records the outcome of a plan generation
func (m *MetricsCollector) PlanGenerated(outcome string) {
	if m == nil {
		return
	}
	m.plansTotal.WithLabelValues(outcome).Inc()
}

// UpstreamRequest records a call to an external API
func (m *MetricsCollector) UpstreamRequest(service, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
	m.upstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// NutritionLookup records the outcome of a single food lookup
func (m *MetricsCollector) NutritionLookup(outcome string) {
	if m == nil {
		return
	}
	m.nutritionLookupsTotal.WithLabelValues(outcome).Inc()
}

// DocumentRendered records a render and, on success, its size
func (m *MetricsCollector) DocumentRendered(outcome string, size int) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(outcome).Inc()
	if size > 0 {
		m.documentSize.Observe(float64(size))
	}
}

// CacheOperation records a cache hit, miss or error
func (m *MetricsCollector) CacheOperation(cache, result string) {
	if m == nil {
		return
	}
	m.cacheOperations.WithLabelValues(cache, result).Inc()
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
