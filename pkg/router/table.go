package router

import (
	"fmt"

	"github.com/vango-dev/vango-admin/pkg/routepath"
)

// Route is one entry of the route table.
type Route struct {
	// Pattern is the declared pattern (e.g. "/users/:id").
	Pattern string

	// Name is an optional identifier used to build links.
	Name string

	// Handler renders the route.
	Handler Handler

	// Meta carries guard inputs such as "public" or "permission".
	Meta Meta

	compiled *routepath.Pattern
}

// Compiled returns the compiled pattern.
func (r *Route) Compiled() *routepath.Pattern { return r.compiled }

// URL builds a path for this route from params.
func (r *Route) URL(params routepath.Params) (string, error) {
	return r.compiled.Build(params)
}

// RouteOption configures route registration.
type RouteOption func(*Route)

// WithName names the route.
func WithName(name string) RouteOption {
	return func(r *Route) { r.Name = name }
}

// WithMeta sets one metadata key. Use bool or string values.
func WithMeta(key string, value any) RouteOption {
	return func(r *Route) {
		if r.Meta == nil {
			r.Meta = make(Meta)
		}
		r.Meta[key] = value
	}
}

// Match is a successful table lookup.
type Match struct {
	Route  *Route
	Params routepath.Params
}

// Table is an ordered list of routes. Registration must finish before the
// table is shared; after that it is read-only and safe for concurrent use.
type Table struct {
	routes []*Route
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add compiles pattern and appends a route.
func (t *Table) Add(pattern string, handler Handler, opts ...RouteOption) (*Route, error) {
	if handler == nil {
		return nil, fmt.Errorf("router: nil handler for %q", pattern)
	}
	compiled, err := routepath.Compile(pattern)
	if err != nil {
		return nil, err
	}
	r := &Route{
		Pattern:  compiled.String(),
		Handler:  handler,
		compiled: compiled,
	}
	for _, opt := range opts {
		opt(r)
	}
	t.routes = append(t.routes, r)
	return r, nil
}

// MustAdd is like Add but panics on error. Meant for startup registration.
func (t *Table) MustAdd(pattern string, handler Handler, opts ...RouteOption) *Route {
	r, err := t.Add(pattern, handler, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the first route, in registration order, whose pattern
// matches path. path must be canonical and carry no query string.
func (t *Table) Resolve(path string) (*Match, bool) {
	for _, r := range t.routes {
		if params, ok := r.compiled.Match(path); ok {
			return &Match{Route: r, Params: params}, true
		}
	}
	return nil, false
}

// Lookup finds a route by name.
func (t *Table) Lookup(name string) (*Route, bool) {
	for _, r := range t.routes {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Routes returns the routes in registration order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.routes) }
