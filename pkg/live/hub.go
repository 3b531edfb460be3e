// Package live pushes server events to open console tabs over websockets.
//
// Every browser session may have several tabs open; each tab subscribes
// under the session id and receives every event published to it.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vango-admin/pkg/toast"
)

// Event is one pushed message.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// EventLogout tells tabs the session was signed out.
const EventLogout = "vango:logout"

// Hub fans events out to per-session subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool

	buffer       int
	pingInterval time.Duration
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets each subscriber's queue length. Events published to a
// full queue are dropped. Default: 16.
func WithBuffer(n int) Option {
	return func(h *Hub) { h.buffer = n }
}

// WithPingInterval sets the websocket keep-alive interval. Default: 30s.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) { h.pingInterval = d }
}

// WithWriteTimeout bounds each websocket write. Default: 10s.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) { h.writeTimeout = d }
}

// WithCheckOrigin replaces the same-origin check for websocket upgrades.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates a Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:         make(map[string]map[*subscriber]struct{}),
		buffer:       16,
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     SameOriginCheck,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default().With("component", "live")
	}
	return h
}

// Subscribe registers a subscriber for sessionID. The returned cancel
// func unsubscribes and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.close()
		return s.ch, func() {}
	}
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sessionID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	return s.ch, func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
		s.close()
	}
}

// Publish delivers ev to every subscriber of sessionID without blocking
// and returns how many received it.
func (h *Hub) Publish(sessionID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.subs[sessionID], sessionID, ev)
}

// Broadcast delivers ev to every subscriber of every session.
func (h *Hub) Broadcast(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for id, set := range h.subs {
		n += h.deliver(set, id, ev)
	}
	return n
}

func (h *Hub) deliver(set map[*subscriber]struct{}, sessionID string, ev Event) int {
	n := 0
	for s := range set {
		select {
		case s.ch <- ev:
			n++
		default:
			h.logger.Warn("subscriber queue full, dropping event", "session", sessionID, "event", ev.Name)
		}
	}
	return n
}

// Subscribers returns the number of subscribers of sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Emitter returns a toast emitter publishing to sessionID.
func (h *Hub) Emitter(sessionID string) toast.Emitter {
	return toast.EmitterFunc(func(name string, data any) {
		h.Publish(sessionID, Event{Name: name, Data: data})
	})
}

// Close disconnects every subscriber. Later subscriptions get a closed
// channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for s := range set {
			s.close()
		}
	}
	h.subs = make(map[string]map[*subscriber]struct{})
}

// ServeWS upgrades the request and streams sessionID's events as JSON text
// frames until the client goes away or the hub closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, cancel := h.Subscribe(sessionID)
	defer cancel()

	readTimeout := 2 * h.pingInterval
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					h.logger.Debug("websocket read error", "session", sessionID, "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encode event", "event", ev.Name, "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// SameOriginCheck accepts upgrades without an Origin header or whose Origin
// host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || r.Host == "" {
		return false
	}
	return u.Host == r.Host
}
