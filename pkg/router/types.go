package router

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/vango-dev/vango-admin/pkg/routepath"
)

// Handler renders the content for a matched route. It may block (for
// example to fetch data); ctx is cancelled when the navigation is
// superseded.
type Handler func(ctx context.Context, req *Request) (templ.Component, error)

// ErrorHandler renders the fallback view when a Handler fails.
type ErrorHandler func(ctx context.Context, req *Request, err error) templ.Component

// Request is what a Handler sees of the navigation target.
type Request struct {
	// Route is the matched route. It is nil for the not-found view.
	Route *Route

	// Params are the captured placeholders in declaration order.
	Params routepath.Params

	// Path is the canonical path without query string.
	Path string

	// Query holds the parsed query string.
	Query url.Values
}

// Param returns a captured placeholder value.
func (r *Request) Param(name string) string {
	return r.Params.Get(name)
}

// Meta is per-route metadata. Values are bool or string.
type Meta map[string]any

// Bool returns the bool value for key, false when absent or not a bool.
func (m Meta) Bool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

// String returns the string value for key, "" when absent or not a string.
func (m Meta) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// Has reports whether key is set.
func (m Meta) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// State is the current route state of a controller. A new State replaces
// the old one on every committed navigation.
type State struct {
	// Route is the matched route, nil when the not-found view is shown.
	Route *Route

	// Params are the captured placeholders.
	Params routepath.Params

	// Path is the canonical path.
	Path string

	// Query is the raw query string.
	Query string
}

// URL returns the path with the query string attached.
func (s *State) URL() string {
	if s == nil {
		return ""
	}
	if s.Query == "" {
		return s.Path
	}
	return s.Path + "?" + s.Query
}

// Meta returns the matched route's metadata, nil when there is none.
func (s *State) Meta() Meta {
	if s == nil || s.Route == nil {
		return nil
	}
	return s.Route.Meta
}

type decisionKind uint8

const (
	decideContinue decisionKind = iota
	decideAbort
	decideRedirect
)

// Decision is a guard's verdict.
type Decision struct {
	kind   decisionKind
	target string
}

// Continue lets the navigation proceed to the next guard.
func Continue() Decision { return Decision{kind: decideContinue} }

// Abort cancels the navigation. State, history and content stay as they were.
func Abort() Decision { return Decision{kind: decideAbort} }

// RedirectTo abandons the current target and restarts resolution at path.
func RedirectTo(path string) Decision {
	return Decision{kind: decideRedirect, target: path}
}

// IsContinue reports whether the decision lets navigation proceed.
func (d Decision) IsContinue() bool { return d.kind == decideContinue }

// IsAbort reports whether the decision cancels navigation.
func (d Decision) IsAbort() bool { return d.kind == decideAbort }

// Target returns the redirect target, "" unless the decision redirects.
func (d Decision) Target() string {
	if d.kind != decideRedirect {
		return ""
	}
	return d.target
}

// Guard runs before a navigation commits. from is nil on the first
// navigation of a controller.
type Guard func(ctx context.Context, to, from *State) (Decision, error)

// AfterHook runs after a navigation commits.
type AfterHook func(ctx context.Context, to, from *State)

// Phase is the controller's position in the navigation lifecycle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhaseCommitted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolving:
		return "resolving"
	case PhaseCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// HistoryMode says how a committed navigation touches history.
type HistoryMode uint8

const (
	HistoryPush HistoryMode = iota
	HistoryReplace
	HistoryNone
)

func (m HistoryMode) String() string {
	switch m {
	case HistoryPush:
		return "push"
	case HistoryReplace:
		return "replace"
	default:
		return "none"
	}
}

// Outcome is how a navigation ended.
type Outcome uint8

const (
	// OutcomeCommitted means the route rendered and was committed.
	OutcomeCommitted Outcome = iota
	// OutcomeNotFound means no route matched and the not-found view was committed.
	OutcomeNotFound
	// OutcomeAborted means a guard stopped the navigation.
	OutcomeAborted
	// OutcomeFailed means the handler failed and the error view was committed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAborted:
		return "aborted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished navigation.
type Result struct {
	Outcome Outcome

	// State is the state after the navigation. For an aborted navigation
	// it is the unchanged previous state.
	State *State

	// Body is the rendered content swapped into the outlet. Nil on abort.
	Body []byte

	// URL is the final URL after redirects.
	URL string

	// History is how history was touched.
	History HistoryMode

	// Redirects counts guard redirects followed.
	Redirects int

	// Err is the handler error behind OutcomeFailed.
	Err error
}

// Observer is notified about every navigation. Implementations must be safe
// for concurrent use.
type Observer interface {
	NavigationStarted(ctx context.Context, target string) context.Context
	NavigationFinished(ctx context.Context, res *Result, err error)
}
