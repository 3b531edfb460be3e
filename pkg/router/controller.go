package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"

	"github.com/a-h/templ"

	"github.com/vango-dev/vango-admin/pkg/routepath"
)

// DefaultMaxRedirects bounds guard redirects within one navigation.
const DefaultMaxRedirects = 8

// Navigation errors.
var (
	// ErrSuperseded is returned by a navigation that was overtaken by a
	// newer one before it could commit.
	ErrSuperseded = errors.New("router: navigation superseded")

	// ErrTooManyRedirects is returned when guards keep redirecting.
	ErrTooManyRedirects = errors.New("router: too many guard redirects")

	// ErrInvalidTarget is returned for targets that are not same-origin
	// relative paths.
	ErrInvalidTarget = errors.New("router: invalid navigation target")
)

const fallbackErrorHTML = `<div class="alert alert-error" role="alert">Something went wrong while loading this page.</div>`

// Controller resolves navigation targets against a Table, runs guards and
// commits rendered content. One Controller serves one browser session.
type Controller struct {
	table        *Table
	before       []Guard
	after        []AfterHook
	notFound     Handler
	errorView    ErrorHandler
	history      History
	outlet       Outlet
	observer     Observer
	logger       *slog.Logger
	maxRedirects int

	mu      sync.Mutex
	phase   Phase
	current *State
	seq     uint64
	cancel  context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory sets the history. Default: a MemoryHistory starting at "/".
func WithHistory(h History) Option {
	return func(c *Controller) { c.history = h }
}

// WithOutlet sets the content outlet. Default: a BufferOutlet.
func WithOutlet(o Outlet) Option {
	return func(c *Controller) { c.outlet = o }
}

// WithNotFound sets the view rendered when no route matches.
func WithNotFound(h Handler) Option {
	return func(c *Controller) { c.notFound = h }
}

// WithErrorView sets the fallback view rendered when a handler fails.
func WithErrorView(h ErrorHandler) Option {
	return func(c *Controller) { c.errorView = h }
}

// WithObserver sets the navigation observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMaxRedirects bounds guard redirects per navigation.
func WithMaxRedirects(n int) Option {
	return func(c *Controller) { c.maxRedirects = n }
}

// BeforeEach appends guards. They run in the order given.
func BeforeEach(guards ...Guard) Option {
	return func(c *Controller) { c.before = append(c.before, guards...) }
}

// AfterEach appends after-hooks. They run in the order given.
func AfterEach(hooks ...AfterHook) Option {
	return func(c *Controller) { c.after = append(c.after, hooks...) }
}

// New creates a Controller over table.
func New(table *Table, opts ...Option) *Controller {
	c := &Controller{
		table:        table,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.history == nil {
		c.history = NewMemoryHistory("/")
	}
	if c.outlet == nil {
		c.outlet = &BufferOutlet{}
	}
	if c.notFound == nil {
		c.notFound = defaultNotFound
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "router")
	}
	return c
}

// Navigate resolves target and, on commit, pushes a history entry.
func (c *Controller) Navigate(ctx context.Context, target string) (*Result, error) {
	return c.run(ctx, target, HistoryPush)
}

// Redirect resolves target and, on commit, replaces the current entry.
func (c *Controller) Redirect(ctx context.Context, target string) (*Result, error) {
	return c.run(ctx, target, HistoryReplace)
}

// Pop handles a browser back/forward event. History already points at
// target, so it is not written.
func (c *Controller) Pop(ctx context.Context, target string) (*Result, error) {
	return c.run(ctx, target, HistoryNone)
}

// Current returns a copy of the current route state, nil before the first
// committed navigation.
func (c *Controller) Current() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// History returns the controller's history.
func (c *Controller) History() History { return c.history }

// Outlet returns the controller's outlet.
func (c *Controller) Outlet() Outlet { return c.outlet }

// Table returns the route table.
func (c *Controller) Table() *Table { return c.table }

func (c *Controller) run(parent context.Context, target string, mode HistoryMode) (*Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	c.cancel = cancel
	c.phase = PhaseResolving
	from := c.current
	c.mu.Unlock()

	if c.observer != nil {
		ctx = c.observer.NavigationStarted(ctx, target)
	}

	res, err := c.resolve(ctx, seq, target, mode, from)

	c.mu.Lock()
	if c.seq == seq {
		c.phase = PhaseIdle
		c.cancel = nil
	}
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.NavigationFinished(ctx, res, err)
	}
	return res, err
}

func (c *Controller) resolve(ctx context.Context, seq uint64, target string, mode HistoryMode, from *State) (*Result, error) {
	for redirects := 0; ; redirects++ {
		if redirects > c.maxRedirects {
			c.logger.Warn("navigation aborted: redirect limit", "target", target, "limit", c.maxRedirects)
			return c.aborted(from, redirects-1), ErrTooManyRedirects
		}

		nav, err := routepath.CanonicalizeAndValidateNavPath(target)
		if err != nil {
			return c.aborted(from, redirects), fmt.Errorf("%w: %q: %v", ErrInvalidTarget, target, err)
		}
		path, query := routepath.SplitPathAndQuery(nav)

		match, ok := c.table.Resolve(path)
		if !ok {
			to := &State{Path: path, Query: query}
			return c.commit(ctx, seq, to, from, c.notFound, mode, OutcomeNotFound, redirects)
		}

		to := &State{Route: match.Route, Params: match.Params, Path: path, Query: query}
		decision := c.runGuards(ctx, to, from)

		if err := c.interrupted(ctx, seq); err != nil {
			return nil, err
		}

		switch decision.kind {
		case decideAbort:
			return c.aborted(from, redirects), nil
		case decideRedirect:
			c.logger.Debug("guard redirect", "from", nav, "to", decision.target)
			target = decision.target
			continue
		}

		return c.commit(ctx, seq, to, from, match.Route.Handler, mode, OutcomeCommitted, redirects)
	}
}

// runGuards runs the before-guards in order and returns the first
// non-continue decision. Errors and panics fail closed.
func (c *Controller) runGuards(ctx context.Context, to, from *State) Decision {
	for i, g := range c.before {
		if ctx.Err() != nil {
			return Abort()
		}
		d, err := c.callGuard(ctx, g, to, from)
		if err != nil {
			c.logger.Warn("guard failed, aborting navigation", "guard", i, "path", to.Path, "error", err)
			return Abort()
		}
		if !d.IsContinue() {
			return d
		}
	}
	return Continue()
}

func (c *Controller) callGuard(ctx context.Context, g Guard, to, from *State) (d Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("guard panic: %v", r)
		}
	}()
	return g(ctx, to, from)
}

func (c *Controller) commit(ctx context.Context, seq uint64, to, from *State, h Handler, mode HistoryMode, outcome Outcome, redirects int) (*Result, error) {
	req := &Request{
		Route:  to.Route,
		Params: to.Params,
		Path:   to.Path,
		Query:  parseQuery(to.Query),
	}

	body, renderErr := c.render(ctx, h, req)
	if renderErr != nil {
		if err := c.interrupted(ctx, seq); err != nil {
			return nil, err
		}
		c.logger.Error("render failed", "path", to.Path, "error", renderErr)
		body = c.renderError(ctx, req, renderErr)
		outcome = OutcomeFailed
	}

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	loc := to.URL()
	switch mode {
	case HistoryPush:
		c.history.Push(loc)
	case HistoryReplace:
		c.history.Replace(loc)
	}
	c.outlet.Swap(body)
	c.current = to
	c.phase = PhaseCommitted
	c.mu.Unlock()

	for _, hook := range c.after {
		c.callAfter(ctx, hook, to, from)
	}

	return &Result{
		Outcome:   outcome,
		State:     to,
		Body:      body,
		URL:       loc,
		History:   mode,
		Redirects: redirects,
		Err:       renderErr,
	}, nil
}

func (c *Controller) callAfter(ctx context.Context, hook AfterHook, to, from *State) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("after-hook panic", "path", to.Path, "panic", r)
		}
	}()
	hook(ctx, to, from)
}

// render runs the handler and renders its component into a buffer, so a
// failure halfway never reaches the outlet.
func (c *Controller) render(ctx context.Context, h Handler, req *Request) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()

	comp, err := h(ctx, req)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	if err := comp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Controller) renderError(ctx context.Context, req *Request, cause error) []byte {
	if c.errorView == nil {
		return []byte(fallbackErrorHTML)
	}
	body, err := c.render(ctx, func(ctx context.Context, req *Request) (templ.Component, error) {
		return c.errorView(ctx, req, cause), nil
	}, req)
	if err != nil {
		c.logger.Error("error view failed", "path", req.Path, "error", err)
		return []byte(fallbackErrorHTML)
	}
	return body
}

func (c *Controller) aborted(from *State, redirects int) *Result {
	return &Result{
		Outcome:   OutcomeAborted,
		State:     from,
		URL:       from.URL(),
		History:   HistoryNone,
		Redirects: redirects,
	}
}

// interrupted reports why ctx ended: ErrSuperseded when a newer
// navigation took over, the context error otherwise, nil if still live.
func (c *Controller) interrupted(ctx context.Context, seq uint64) error {
	c.mu.Lock()
	superseded := c.seq != seq
	c.mu.Unlock()
	if superseded {
		return ErrSuperseded
	}
	return ctx.Err()
}

func parseQuery(raw string) url.Values {
	q, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return q
}

func defaultNotFound(ctx context.Context, req *Request) (templ.Component, error) {
	return templ.Raw(`<div class="not-found"><h1>404</h1><p>Page not found: ` +
		templ.EscapeString(req.Path) + `</p></div>`), nil
}
