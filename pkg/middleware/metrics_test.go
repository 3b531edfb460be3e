package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(WithRegistry(reg)), reg
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestNavigationMetrics(t *testing.T) {
	m, _ := newTestMetrics(t)

	tbl := router.NewTable()
	tbl.MustAdd("/users/:id", func(context.Context, *router.Request) (templ.Component, error) {
		return templ.Raw("user"), nil
	})
	ctrl := router.New(tbl, router.WithObserver(m.Navigation()))

	for _, target := range []string{"/users/1", "/users/2", "/missing"} {
		if _, err := ctrl.Navigate(context.Background(), target); err != nil {
			t.Fatalf("Navigate(%q): %v", target, err)
		}
	}

	if got := testutil.ToFloat64(m.navigationsTotal.WithLabelValues("/users/:id", "committed")); got != 2 {
		t.Fatalf("navigations_total(/users/:id, committed) = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.navigationsTotal.WithLabelValues("not_found", "not_found")); got != 1 {
		t.Fatalf("navigations_total(not_found) = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.navigationDuration.WithLabelValues("/users/:id")); got != 2 {
		t.Fatalf("navigation_duration count = %d, want 2", got)
	}
}

func TestNavigationLabels(t *testing.T) {
	route := &router.Route{Pattern: "/users/:id"}
	tests := []struct {
		name        string
		res         *router.Result
		err         error
		wantRoute   string
		wantOutcome string
	}{
		{"committed", &router.Result{Outcome: router.OutcomeCommitted, State: &router.State{Route: route}}, nil, "/users/:id", "committed"},
		{"failed", &router.Result{Outcome: router.OutcomeFailed, State: &router.State{Route: route}}, nil, "/users/:id", "failed"},
		{"aborted first load", &router.Result{Outcome: router.OutcomeAborted}, nil, "none", "aborted"},
		{"superseded", nil, router.ErrSuperseded, "none", "superseded"},
		{"loop", &router.Result{Outcome: router.OutcomeAborted}, router.ErrTooManyRedirects, "none", "redirect_loop"},
		{"invalid", &router.Result{Outcome: router.OutcomeAborted}, router.ErrInvalidTarget, "none", "invalid"},
		{"canceled", nil, context.Canceled, "none", "canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, outcome := navLabels(tt.res, tt.err)
			if route != tt.wantRoute || outcome != tt.wantOutcome {
				t.Fatalf("navLabels = (%q, %q), want (%q, %q)", route, outcome, tt.wantRoute, tt.wantOutcome)
			}
		})
	}
}

func TestGuardRedirectMetric(t *testing.T) {
	m, _ := newTestMetrics(t)
	obs := m.Navigation()
	ctx := obs.NavigationStarted(context.Background(), "/a")
	obs.NavigationFinished(ctx, &router.Result{Outcome: router.OutcomeCommitted, Redirects: 2}, nil)

	if got := testutil.ToFloat64(m.guardRedirects); got != 2 {
		t.Fatalf("guard_redirects_total = %v, want 2", got)
	}
}

func TestAPIClientMetrics(t *testing.T) {
	m, _ := newTestMetrics(t)
	obs := m.APIClient()

	ctx := obs.CallStarted(context.Background(), http.MethodGet, "/users")
	obs.CallFinished(ctx, http.MethodGet, "/users", 200, 1, nil)

	ctx = obs.CallStarted(context.Background(), http.MethodGet, "/users")
	obs.CallFinished(ctx, http.MethodGet, "/users", 503, 3, &apiclient.Error{Status: 503})

	ctx = obs.CallStarted(context.Background(), http.MethodPost, "/files")
	obs.CallFinished(ctx, http.MethodPost, "/files", 0, 1, &apiclient.Error{Err: apiclient.ErrNetwork})

	if got := testutil.ToFloat64(m.apiCallsTotal.WithLabelValues("GET", "200")); got != 1 {
		t.Fatalf("api_calls_total(GET,200) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.apiCallsTotal.WithLabelValues("POST", "none")); got != 1 {
		t.Fatalf("api_calls_total(POST,none) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.apiRetries); got != 2 {
		t.Fatalf("api_retries_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.apiErrors.WithLabelValues("server")); got != 1 {
		t.Fatalf("api_errors_total(server) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.apiErrors.WithLabelValues("network")); got != 1 {
		t.Fatalf("api_errors_total(network) = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.apiCallDuration.WithLabelValues("GET")); got != 2 {
		t.Fatalf("api_call_duration count = %d, want 2", got)
	}
}

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	m, reg := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.HTTP)
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/users/1", "/users/2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/users/{id}", "GET", "418")); got != 2 {
		t.Fatalf("http_requests_total(/users/{id}) = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/ok", "GET", "200")); got != 1 {
		t.Fatalf("http_requests_total(/ok) = %v, want 1", got)
	}

	expected := `
# HELP vango_admin_active_sessions Number of browser sessions with a live navigation controller
# TYPE vango_admin_active_sessions gauge
vango_admin_active_sessions 1
`
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "vango_admin_active_sessions"); err != nil {
		t.Fatal(err)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&apiclient.Error{Status: 401}, "unauthorized"},
		{&apiclient.Error{Err: apiclient.ErrTimeout}, "timeout"},
		{context.Canceled, "canceled"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("upstream Forbidden"), "forbidden"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRegisteringTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))
	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	NewMetrics(WithRegistry(reg))
}
