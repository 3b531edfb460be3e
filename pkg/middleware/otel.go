package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
)

// Default tracer name for the console.
const defaultTracerName = "vango-admin"

// OTelConfig configures tracing.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vango-admin").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// IncludeQuery adds the raw query string to navigation spans.
	// Queries may carry search keywords, so this is off by default.
	IncludeQuery bool
}

// OTelOption configures tracing.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(p trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.Provider = p
	}
}

// WithIncludeQuery enables/disables query strings on navigation spans.
func WithIncludeQuery(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeQuery = include
	}
}

// Tracing creates OpenTelemetry spans for navigations, backend calls and
// console HTTP requests. Spans nest through the context: an API call made
// by a route handler becomes a child of the navigation span.
//
// The tracer comes from the global provider unless one is given. Configure
// it in main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracing struct {
	tracer       trace.Tracer
	includeQuery bool
}

// NewTracing creates a Tracing.
func NewTracing(opts ...OTelOption) *Tracing {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer:       provider.Tracer(config.TracerName),
		includeQuery: config.IncludeQuery,
	}
}

// Navigation returns a router.Observer that wraps each navigation in a span.
func (t *Tracing) Navigation() router.Observer { return navTracer{t} }

type navTracer struct{ t *Tracing }

func (n navTracer) NavigationStarted(ctx context.Context, target string) context.Context {
	ctx, _ = n.t.tracer.Start(ctx, "navigate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("vango.target", targetPath(target, n.t.includeQuery))),
	)
	return ctx
}

func (n navTracer) NavigationFinished(ctx context.Context, res *router.Result, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	route, outcome := navLabels(res, err)
	span.SetAttributes(
		attribute.String("vango.route", route),
		attribute.String("vango.outcome", outcome),
	)
	if res != nil {
		span.SetAttributes(attribute.Int("vango.redirects", res.Redirects))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "handler failed")
			return
		}
	}
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, router.ErrSuperseded):
		// A newer navigation took over; not a failure.
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func targetPath(target string, withQuery bool) string {
	if withQuery {
		return target
	}
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i]
	}
	return target
}

// APIClient returns an apiclient.Observer that wraps each backend call in a
// client span.
func (t *Tracing) APIClient() apiclient.Observer { return apiTracer{t} }

type apiTracer struct{ t *Tracing }

func (a apiTracer) CallStarted(ctx context.Context, method, path string) context.Context {
	ctx, _ = a.t.tracer.Start(ctx, "api "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("vango.api.path", path),
		),
	)
	return ctx
}

func (a apiTracer) CallFinished(ctx context.Context, _, _ string, status, attempts int, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.Int("http.response.status_code", status),
		attribute.Int("vango.api.attempts", attempts),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, categorizeError(err))
		return
	}
	span.SetStatus(codes.Ok, "")
}

// HTTP is chi middleware that starts a server span per request. The span
// is renamed to the matched route pattern once routing is done.
func (t *Tracing) HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := t.tracer.Start(r.Context(), r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		if rc := chi.RouteContext(ctx); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				span.SetName(r.Method + " " + p)
				span.SetAttributes(attribute.String("http.route", p))
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}
