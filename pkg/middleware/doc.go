// Package middleware instruments the console with Prometheus metrics and
// OpenTelemetry traces.
//
// Both come in three shapes: a router.Observer for navigations, an
// apiclient.Observer for backend calls, and chi middleware for the
// console's own HTTP endpoints.
//
// # Prometheus Metrics
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//
//	r := chi.NewRouter()
//	r.Use(m.HTTP)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
//	ctrl := router.New(table, router.WithObserver(m.Navigation()))
//	api, _ := apiclient.New(base, apiclient.WithObserver(m.APIClient()))
//
// Route labels use declared patterns ("/users/:id"), never concrete paths.
//
// # OpenTelemetry
//
// Tracing uses the global tracer provider unless WithTracerProvider is
// given. Navigation spans become parents of the API call spans made while
// rendering, since the navigation context flows into route handlers:
//
//	tr := middleware.NewTracing()
//	obs := middleware.NavigationObservers(tr.Navigation(), m.Navigation())
//
// Observers are combined with NavigationObservers and APIObservers.
package middleware
