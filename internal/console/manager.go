package console

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/middleware"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/session"
)

// Tab is the console state of one browser session: its credentials, an
// API client bound to them and a navigation controller.
type Tab struct {
	ID string

	creds    *session.Credentials
	api      *apiclient.Client
	auth     *apiclient.Auth
	ctrl     *router.Controller
	history  *router.MemoryHistory
	outlet   *router.BufferOutlet
	pageSize int

	mu         sync.Mutex
	lastSeen   time.Time
	title      string
	activeMenu string
	lists      map[string]ListState
}

// Credentials returns the session's credential accessor.
func (t *Tab) Credentials() *session.Credentials { return t.creds }

// Controller returns the session's navigation controller.
func (t *Tab) Controller() *router.Controller { return t.ctrl }

// API returns the client bound to the session's credentials.
func (t *Tab) API() *apiclient.Client { return t.api }

// Title returns the title set by the last committed navigation.
func (t *Tab) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// ActiveMenu returns the menu path highlighted in the sidebar.
func (t *Tab) ActiveMenu() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeMenu
}

func (t *Tab) setView(title, menu string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
	t.activeMenu = menu
}

// rememberList records the state a list page was last shown with, so
// actions can refresh the same view.
func (t *Tab) rememberList(base string, s ListState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lists[base] = s
}

// listURL returns the URL of the list at base as last shown, with the
// selection dropped.
func (t *Tab) listURL(base string) string {
	t.mu.Lock()
	s, ok := t.lists[base]
	t.mu.Unlock()
	if !ok {
		return base
	}
	s.Selected = nil
	return s.URL(base)
}

func (t *Tab) touch(now time.Time) {
	t.mu.Lock()
	t.lastSeen = now
	t.mu.Unlock()
}

func (t *Tab) idleSince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

type tabKey struct{}

func withTab(ctx context.Context, t *Tab) context.Context {
	return context.WithValue(ctx, tabKey{}, t)
}

// tabFrom returns the tab the request belongs to, nil outside a request.
func tabFrom(ctx context.Context) *Tab {
	t, _ := ctx.Value(tabKey{}).(*Tab)
	return t
}

// Manager keeps one Tab per session id and evicts tabs left idle. Evicting
// a tab drops its navigation state only; credentials live in the session
// store until their own expiry.
type Manager struct {
	mu   sync.Mutex
	tabs map[string]*Tab

	create  func(id string) *Tab
	idle    time.Duration
	metrics *middleware.Metrics
	logger  *slog.Logger
	now     func() time.Time

	cleanupInterval time.Duration
	started         bool
	done            chan struct{}
	cleanupDone     chan struct{}
	closeOnce       sync.Once
}

// NewManager creates a Manager building tabs with create. Tabs idle longer
// than idle are evicted.
func NewManager(create func(id string) *Tab, idle time.Duration, metrics *middleware.Metrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default().With("component", "tabs")
	}
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &Manager{
		tabs:            make(map[string]*Tab),
		create:          create,
		idle:            idle,
		metrics:         metrics,
		logger:          logger,
		now:             time.Now,
		cleanupInterval: interval,
		done:            make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}
}

// Get returns the tab for id, creating it on first use, and marks it seen.
func (m *Manager) Get(id string) *Tab {
	now := m.now()
	m.mu.Lock()
	t, ok := m.tabs[id]
	if !ok {
		t = m.create(id)
		m.tabs[id] = t
	}
	m.mu.Unlock()

	if !ok {
		m.logger.Debug("tab opened", "session", id)
		if m.metrics != nil {
			m.metrics.SessionOpened()
		}
	}
	t.touch(now)
	return t
}

// Lookup returns the tab for id without creating one.
func (m *Manager) Lookup(id string) (*Tab, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	return t, ok
}

// Remove drops the tab for id.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	_, ok := m.tabs[id]
	delete(m.tabs, id)
	m.mu.Unlock()
	if ok && m.metrics != nil {
		m.metrics.SessionClosed()
	}
}

// Len returns the number of live tabs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tabs)
}

// Evict removes tabs not seen since before now minus the idle timeout and
// returns how many went.
func (m *Manager) Evict(now time.Time) int {
	cutoff := now.Add(-m.idle)
	var expired []string

	m.mu.Lock()
	for id, t := range m.tabs {
		if t.idleSince().Before(cutoff) {
			expired = append(expired, id)
			delete(m.tabs, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.logger.Debug("tab evicted", "session", id)
		if m.metrics != nil {
			m.metrics.SessionClosed()
		}
	}
	return len(expired)
}

// Start runs the eviction loop until Close.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanupLoop()
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if n := m.Evict(m.now()); n > 0 {
				m.logger.Info("evicted idle tabs", "count", n)
			}
		}
	}
}

// Close stops the eviction loop and drops every tab.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.cleanupDone
		}

		m.mu.Lock()
		n := len(m.tabs)
		m.tabs = make(map[string]*Tab)
		m.mu.Unlock()
		if m.metrics != nil {
			for range n {
				m.metrics.SessionClosed()
			}
		}
	})
}
