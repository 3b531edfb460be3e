package console

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vango-admin/internal/config"
	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/live"
	"github.com/vango-dev/vango-admin/pkg/middleware"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/session"
	"github.com/vango-dev/vango-admin/pkg/toast"
	"github.com/vango-dev/vango-admin/pkg/upload"
)

// Server is the admin console: a chi HTTP server that keeps one navigation
// controller per browser session and answers htmx requests with rendered
// fragments.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	base      *apiclient.Client
	auth      *apiclient.Auth
	sessions  session.Store
	uploads   upload.Store
	uploadCfg *upload.Config
	hub       *live.Hub
	tabs      *Manager
	table     *router.Table

	metrics  *middleware.Metrics
	tracing  *middleware.Tracing
	gatherer prometheus.Gatherer
	navObs   router.Observer

	mux        chi.Router
	httpServer *http.Server
	stop       context.CancelFunc
}

type options struct {
	logger         *slog.Logger
	sessions       session.Store
	uploads        upload.Store
	registry       *prometheus.Registry
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSessionStore sets the credential store. Default: a MemoryStore. The
// server closes the store on Shutdown.
func WithSessionStore(s session.Store) Option {
	return func(o *options) { o.sessions = s }
}

// WithUploadStore sets the upload staging store. Default: a DiskStore in
// the configured directory.
func WithUploadStore(s upload.Store) Option {
	return func(o *options) { o.uploads = s }
}

// WithRegistry sets the Prometheus registry collectors register with and
// /metrics serves. Default: a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithHTTPClient sets the client used to reach the backend.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTracerProvider sets the OpenTelemetry provider. Default: the global
// provider.
func WithTracerProvider(p trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = p }
}

// New creates a console for cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.New()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "console")
	}
	if o.sessions == nil {
		o.sessions = session.NewMemoryStore()
	}
	if o.uploads == nil {
		disk, err := upload.NewDiskStore(cfg.Upload.Dir, cfg.Upload.MaxFileSize)
		if err != nil {
			return nil, err
		}
		o.uploads = disk
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	s := &Server{
		cfg:      cfg,
		logger:   o.logger,
		sessions: o.sessions,
		uploads:  o.uploads,
		uploadCfg: &upload.Config{
			MaxFileSize:  cfg.Upload.MaxFileSize,
			AllowedTypes: cfg.Upload.AllowedTypes,
			FieldName:    "file",
			Logger:       o.logger.With("component", "upload"),
		},
		gatherer: o.registry,
	}

	tracingOpts := []middleware.OTelOption{middleware.WithTracerName("vango-admin")}
	if o.tracerProvider != nil {
		tracingOpts = append(tracingOpts, middleware.WithTracerProvider(o.tracerProvider))
	}
	s.tracing = middleware.NewTracing(tracingOpts...)

	navObs := []router.Observer{s.tracing.Navigation()}
	apiObs := []apiclient.Observer{s.tracing.APIClient()}
	if cfg.Metrics.Enabled {
		metricsOpts := []middleware.MetricsOption{middleware.WithRegistry(o.registry)}
		if cfg.Metrics.Namespace != "" {
			metricsOpts = append(metricsOpts, middleware.WithNamespace(cfg.Metrics.Namespace))
		}
		s.metrics = middleware.NewMetrics(metricsOpts...)
		navObs = append(navObs, s.metrics.Navigation())
		apiObs = append(apiObs, s.metrics.APIClient())
	}
	s.navObs = middleware.NavigationObservers(navObs...)

	clientOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.API.Timeout.D()),
		apiclient.WithRetries(cfg.API.Retries),
		apiclient.WithRetryDelay(cfg.API.RetryDelay.D()),
		apiclient.WithPageParams(apiclient.PageParams{
			Current:   cfg.API.Paging.Current,
			Size:      cfg.API.Paging.Size,
			Keyword:   cfg.API.Paging.Keyword,
			ZeroBased: cfg.API.Paging.ZeroBased,
		}),
		apiclient.WithObserver(middleware.APIObservers(apiObs...)),
		apiclient.WithLogger(o.logger.With("component", "api")),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	base, err := apiclient.New(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}
	s.base = base
	s.auth = apiclient.NewAuth(base)

	s.hub = live.NewHub(
		live.WithBuffer(cfg.Live.Buffer),
		live.WithPingInterval(cfg.Live.PingInterval.D()),
		live.WithCheckOrigin(s.checkOrigin),
		live.WithLogger(o.logger.With("component", "live")),
	)
	s.table = s.buildTable()
	s.tabs = NewManager(s.newTab, cfg.Session.IdleTimeout.D(), s.metrics, o.logger.With("component", "tabs"))
	s.mux = s.routes()
	return s, nil
}

// newTab builds the state of a browser session seen for the first time.
func (s *Server) newTab(id string) *Tab {
	t := &Tab{
		ID:       id,
		creds:    session.NewCredentials(s.sessions, id, s.cfg.Session.TTL.D()),
		history:  router.NewMemoryHistory("/"),
		outlet:   &router.BufferOutlet{},
		pageSize: s.cfg.API.Paging.DefaultSize,
		lists:    make(map[string]ListState),
	}
	t.api = s.base.With(
		apiclient.WithCredentials(t.creds),
		apiclient.OnUnauthorized(func(ctx context.Context) {
			toast.Warning(s.sessionToasts(ctx, id), "Your session has expired. Please sign in again.")
			s.hub.Publish(id, live.Event{Name: live.EventLogout})
		}),
	)
	t.auth = apiclient.NewAuth(t.api)
	t.ctrl = router.New(s.table,
		router.WithHistory(t.history),
		router.WithOutlet(t.outlet),
		router.WithNotFound(notFoundView),
		router.WithErrorView(errorView),
		router.WithObserver(s.navObs),
		router.WithLogger(s.logger.With("component", "router", "session", id)),
		router.BeforeEach(authGuard(t.creds), permissionGuard(t.creds)),
		router.AfterEach(viewHook(t), touchHook(t.creds, s.logger)),
	)
	return t
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(s.tracing.HTTP)
	if s.metrics != nil {
		r.Use(s.metrics.HTTP)
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/ws", s.handleWS)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/files/upload", s.handleUpload)
		r.Post("/{resource}/batch-delete", s.handleBatchDelete)
		r.Get("/*", s.handlePage)
	})
	return r
}

// Handler returns the console's HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Table returns the console's route table.
func (s *Server) Table() *router.Table { return s.table }

// Tabs returns the session manager.
func (s *Server) Tabs() *Manager { return s.tabs }

// Hub returns the live event hub.
func (s *Server) Hub() *live.Hub { return s.hub }

// Run starts the server and blocks until it fails or receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout.D(),
		WriteTimeout:      s.cfg.Server.WriteTimeout.D(),
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.tabs.Start()
	maxAge := s.cfg.Upload.MaxAge.D()
	go upload.RunCleanup(ctx, s.uploads, max(maxAge/2, time.Minute), maxAge, s.logger.With("component", "upload"))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("console starting", "address", s.httpServer.Addr, "api", s.cfg.API.BaseURL)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		cancel()
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown disconnects live streams, drops every tab and stops the HTTP
// server within the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout.D())
	defer cancel()

	if s.stop != nil {
		s.stop()
	}
	n := s.hub.Broadcast(live.Event{Name: toast.EventName, Data: toast.Toast{
		Level:   toast.TypeWarning,
		Message: "The console is restarting. This page reconnects shortly.",
	}})
	s.logger.Debug("notified live streams", "streams", n)
	s.hub.Close()
	s.tabs.Close()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	if err := s.sessions.Close(); err != nil {
		s.logger.Warn("close session store", "error", err)
	}

	s.logger.Info("console shutdown complete")
	return nil
}

// checkOrigin accepts same-origin websocket upgrades and the configured
// extra origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	if live.SameOriginCheck(r) {
		return true
	}
	return slices.Contains(s.cfg.Server.AllowedOrigins, r.Header.Get("Origin"))
}

// sessionID returns the browser's session id, issuing a cookie on first
// contact or when the cookie is not one of ours.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// withSession attaches the caller's tab and a toast queue for the response.
// The tab's credentials are reread from the store so a sign-out or expiry
// seen by another replica applies here too.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tab := s.tabs.Get(s.sessionID(w, r))
		tab.creds.Refresh()
		ctx := withTab(r.Context(), tab)
		ctx = toast.NewContext(ctx, toast.NewQueue())
		if win, err := uuid.Parse(r.Header.Get(headerWindow)); err == nil {
			ctx = context.WithValue(ctx, windowKey{}, win.String())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// headerWindow carries the id of the browser window making an htmx request.
const headerWindow = "X-Console-Window"

type windowKey struct{}

// sessionToasts returns an emitter that shows toasts in the requesting
// window and pushes them to every other window of the session over /ws.
func (s *Server) sessionToasts(ctx context.Context, sessionID string) toast.Emitter {
	local := toast.From(ctx)
	remote := s.hub.Emitter(sessionID)
	origin, _ := ctx.Value(windowKey{}).(string)
	return toast.EmitterFunc(func(name string, data any) {
		local.Emit(name, data)
		if t, ok := data.(toast.Toast); ok {
			t.Origin = origin
			data = t
		}
		remote.Emit(name, data)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"tabs":   s.tabs.Len(),
		"routes": s.table.Len(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tab := tabFrom(r.Context())
	if err := s.hub.ServeWS(w, r, tab.ID); err != nil {
		s.logger.Debug("websocket closed", "session", tab.ID, "error", err)
		if s.metrics != nil {
			s.metrics.WebSocketError("stream")
		}
	}
}
