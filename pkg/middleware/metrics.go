package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vango_admin").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vango_admin",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the console's Prometheus collectors. Create one per
// registry; registering twice on the same registry panics.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	guardRedirects     prometheus.Counter
	apiCallsTotal      *prometheus.CounterVec
	apiCallDuration    *prometheus.HistogramVec
	apiRetries         prometheus.Counter
	apiErrors          *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	activeSessions     prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// NewMetrics registers the collectors.
//
// Metrics collected (with the default namespace):
//   - vango_admin_navigations_total: navigations by route pattern and outcome
//   - vango_admin_navigation_duration_seconds: navigation latency by route
//   - vango_admin_guard_redirects_total: redirects issued by guards
//   - vango_admin_api_calls_total: backend calls by method and status
//   - vango_admin_api_call_duration_seconds: backend call latency by method
//   - vango_admin_api_retries_total: extra attempts made by the retry policy
//   - vango_admin_api_errors_total: failed backend calls by error type
//   - vango_admin_http_requests_total: console HTTP requests by route, method and code
//   - vango_admin_http_request_duration_seconds: console HTTP latency
//   - vango_admin_active_sessions: browser sessions with a live controller
//   - vango_admin_websocket_errors_total: live stream errors by type
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.HTTP)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	histogram := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, labels)
	}

	return &Metrics{
		navigationsTotal:   counter("navigations_total", "Total navigations by route and outcome", "route", "outcome"),
		navigationDuration: histogram("navigation_duration_seconds", "Navigation duration in seconds", "route"),
		guardRedirects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "guard_redirects_total",
			Help:        "Total redirects issued by navigation guards",
			ConstLabels: config.ConstLabels,
		}),
		apiCallsTotal:   counter("api_calls_total", "Total backend API calls by method and status", "method", "status"),
		apiCallDuration: histogram("api_call_duration_seconds", "Backend API call duration in seconds, retries included", "method"),
		apiRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_retries_total",
			Help:        "Total extra attempts made by the retry policy",
			ConstLabels: config.ConstLabels,
		}),
		apiErrors:         counter("api_errors_total", "Total failed backend API calls by error type", "error_type"),
		httpRequestsTotal: counter("http_requests_total", "Total console HTTP requests", "route", "method", "code"),
		httpDuration:      histogram("http_request_duration_seconds", "Console HTTP request duration in seconds", "route", "method"),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of browser sessions with a live navigation controller",
			ConstLabels: config.ConstLabels,
		}),
		wsErrors: counter("websocket_errors_total", "Total live stream errors by type", "type"),
	}
}

type startKey struct{}

func withStart(ctx context.Context) context.Context {
	return context.WithValue(ctx, startKey{}, time.Now())
}

func since(ctx context.Context) float64 {
	if t, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(t).Seconds()
	}
	return 0
}

// Navigation returns a router.Observer feeding the navigation metrics.
func (m *Metrics) Navigation() router.Observer { return navMetrics{m} }

type navMetrics struct{ m *Metrics }

func (n navMetrics) NavigationStarted(ctx context.Context, _ string) context.Context {
	return withStart(ctx)
}

func (n navMetrics) NavigationFinished(ctx context.Context, res *router.Result, err error) {
	route, outcome := navLabels(res, err)
	n.m.navigationsTotal.WithLabelValues(route, outcome).Inc()
	n.m.navigationDuration.WithLabelValues(route).Observe(since(ctx))
	if res != nil && res.Redirects > 0 {
		n.m.guardRedirects.Add(float64(res.Redirects))
	}
}

// navLabels keeps label cardinality bounded: routes are labelled by their
// declared pattern, never by the concrete path.
func navLabels(res *router.Result, err error) (route, outcome string) {
	route = "none"
	switch {
	case errors.Is(err, router.ErrSuperseded):
		return route, "superseded"
	case errors.Is(err, router.ErrTooManyRedirects):
		outcome = "redirect_loop"
	case errors.Is(err, router.ErrInvalidTarget):
		outcome = "invalid"
	case err != nil:
		outcome = "canceled"
	case res != nil:
		outcome = res.Outcome.String()
	}
	if res != nil && res.State != nil && res.State.Route != nil {
		route = res.State.Route.Pattern
	}
	if res != nil && res.Outcome == router.OutcomeNotFound {
		route = "not_found"
	}
	return route, outcome
}

// APIClient returns an apiclient.Observer feeding the backend call metrics.
func (m *Metrics) APIClient() apiclient.Observer { return apiMetrics{m} }

type apiMetrics struct{ m *Metrics }

func (a apiMetrics) CallStarted(ctx context.Context, _, _ string) context.Context {
	return withStart(ctx)
}

func (a apiMetrics) CallFinished(ctx context.Context, method, _ string, status, attempts int, err error) {
	code := strconv.Itoa(status)
	if status == 0 {
		code = "none"
	}
	a.m.apiCallsTotal.WithLabelValues(method, code).Inc()
	a.m.apiCallDuration.WithLabelValues(method).Observe(since(ctx))
	if attempts > 1 {
		a.m.apiRetries.Add(float64(attempts - 1))
	}
	if err != nil {
		a.m.apiErrors.WithLabelValues(categorizeError(err)).Inc()
	}
}

// HTTP is chi middleware recording request counts and latency, labelled
// by the matched chi route pattern.
func (m *Metrics) HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// SessionOpened records a new browser session.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

// SessionClosed records an evicted or logged-out session.
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

// WebSocketError records a live stream error.
func (m *Metrics) WebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// categorizeError returns a low-cardinality label for err.
func categorizeError(err error) string {
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Kind().String()
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	case strings.Contains(msg, "forbidden"):
		return "forbidden"
	default:
		return "internal"
	}
}
