package toast

import (
	"context"
	"encoding/json"
	"sync"
)

// EventName is the browser event toasts are dispatched as.
const EventName = "vango:toast"

// Type is the toast level.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Toast is one notification as the browser receives it.
type Toast struct {
	Level       Type   `json:"level"`
	Title       string `json:"title,omitempty"`
	Message     string `json:"message"`
	ActionLabel string `json:"actionLabel,omitempty"`
	ActionID    string `json:"actionID,omitempty"`
	// Origin names the browser window whose action raised the toast. That
	// window already shows it and ignores pushed copies.
	Origin string `json:"origin,omitempty"`
}

// Emitter dispatches a named event with a payload to the browser.
type Emitter interface {
	Emit(name string, data any)
}

// Show dispatches a toast.
func Show(e Emitter, level Type, message string) {
	Custom(e, Toast{Level: level, Message: message})
}

// Success shows a success toast.
//
//	toast.Success(e, "Changes saved")
func Success(e Emitter, message string) {
	Show(e, TypeSuccess, message)
}

// Error shows an error toast.
func Error(e Emitter, message string) {
	Show(e, TypeError, message)
}

// Warning shows a warning toast.
func Warning(e Emitter, message string) {
	Show(e, TypeWarning, message)
}

// Info shows an info toast.
func Info(e Emitter, message string) {
	Show(e, TypeInfo, message)
}

// WithTitle shows a toast with a title.
//
//	toast.WithTitle(e, toast.TypeSuccess, "Roles", "Role saved.")
func WithTitle(e Emitter, level Type, title, message string) {
	Custom(e, Toast{Level: level, Title: title, Message: message})
}

// WithAction shows a toast with an action button. Clicking it dispatches
// actionID back to the page.
func WithAction(e Emitter, level Type, message, actionLabel, actionID string) {
	Custom(e, Toast{Level: level, Message: message, ActionLabel: actionLabel, ActionID: actionID})
}

// Custom dispatches t as is.
func Custom(e Emitter, t Toast) {
	if e == nil {
		return
	}
	e.Emit(EventName, t)
}

// Queue is an Emitter that collects events for one response.
type Queue struct {
	mu     sync.Mutex
	events map[string][]any
	order  []string
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{events: make(map[string][]any)}
}

// Emit records an event.
func (q *Queue) Emit(name string, data any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.events[name]; !ok {
		q.order = append(q.order, name)
	}
	q.events[name] = append(q.events[name], data)
}

// Toasts returns the queued toasts in emission order.
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Toast
	for _, d := range q.events[EventName] {
		if t, ok := d.(Toast); ok {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, evs := range q.events {
		n += len(evs)
	}
	return n
}

// Header encodes the queue as an htmx HX-Trigger value: an object mapping
// each event name to the list of its payloads. It returns "" when empty.
func (q *Queue) Header() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return "", nil
	}
	data, err := json.Marshal(q.events)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Reset empties the queue.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = make(map[string][]any)
	q.order = nil
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(name string, data any)

func (f EmitterFunc) Emit(name string, data any) { f(name, data) }

type ctxKey struct{}

// NewContext returns ctx carrying e.
func NewContext(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

// From returns the emitter carried by ctx, or a no-op emitter.
func From(ctx context.Context) Emitter {
	if e, ok := ctx.Value(ctxKey{}).(Emitter); ok && e != nil {
		return e
	}
	return discard{}
}

type discard struct{}

func (discard) Emit(string, any) {}
