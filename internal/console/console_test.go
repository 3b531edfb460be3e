package console_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vango-admin/internal/config"
	"github.com/vango-dev/vango-admin/internal/console"
	"github.com/vango-dev/vango-admin/pkg/live"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/session"
	"github.com/vango-dev/vango-admin/pkg/toast"
)

// fakeBackend is a minimal admin API speaking the {code, msg, data}
// envelope.
type fakeBackend struct {
	mu           sync.Mutex
	roles        []string
	permissions  []string
	unauthorized bool
	userTotal    int
	files        []map[string]any
	deleted      []string
	uploaded     map[string]string
	lastAuth     string
	lastQuery    url.Values
	userQueries  []url.Values
	fetchedIDs   []string
}

func ok(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "ok", "data": data})
}

func (b *fakeBackend) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"code":1001,"msg":"Wrong username or password"}`)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		ok(w, map[string]any{
			"token":       "tok-" + req.Username,
			"user":        map[string]any{"id": 1, "username": req.Username, "nickname": "Ada"},
			"roles":       b.roles,
			"permissions": b.permissions,
		})
	})
	r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) { ok(w, nil) })
	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastAuth = r.Header.Get("Authorization")
		b.lastQuery = r.URL.Query()
		b.userQueries = append(b.userQueries, r.URL.Query())
		if b.unauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ok(w, map[string]any{
			"records": []map[string]any{
				{"id": 1, "username": "ada", "email": "ada@example.com", "status": 1, "createTime": "2024-01-02 10:00:00"},
				{"id": 2, "username": "grace", "email": "grace@example.com", "status": 0, "createTime": nil},
			},
			"total": b.userTotal,
		})
	})
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.fetchedIDs = append(b.fetchedIDs, chi.URLParam(r, "id"))
		ok(w, map[string]any{"id": 1, "username": "ada", "email": "ada@example.com", "createTime": 1704189600000})
	})
	r.Delete("/users/batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ IDs []string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.deleted = append(b.deleted, body.IDs...)
		b.mu.Unlock()
		ok(w, nil)
	})
	r.Get("/files", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		ok(w, map[string]any{"records": b.files, "total": len(b.files)})
	})
	r.Post("/files", func(w http.ResponseWriter, r *http.Request) {
		f, h, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		b.mu.Lock()
		b.uploaded[h.Filename] = string(data)
		b.mu.Unlock()
		ok(w, map[string]any{"id": 9})
	})
	return r
}

type harness struct {
	t        *testing.T
	backend  *fakeBackend
	sessions *session.MemoryStore
	console  *console.Server
	srv      *httptest.Server
	client   *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := &fakeBackend{roles: []string{"admin"}, userTotal: 12, uploaded: make(map[string]string)}
	api := httptest.NewServer(backend.handler())
	t.Cleanup(api.Close)

	cfg := config.New()
	cfg.API.BaseURL = api.URL
	cfg.API.Retries = 0
	cfg.Upload.Dir = t.TempDir()

	sessions := session.NewMemoryStore()
	s, err := console.New(cfg,
		console.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		console.WithRegistry(prometheus.NewRegistry()),
		console.WithSessionStore(sessions),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{t: t, backend: backend, sessions: sessions, console: s, srv: srv, client: client}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string, htmx bool) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+path, nil)
	require.NoError(h.t, err)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return h.do(req)
}

func (h *harness) postForm(path string, form url.Values, htmx bool) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return h.do(req)
}

func (h *harness) signIn() {
	h.t.Helper()
	resp, _ := h.postForm("/login", url.Values{"username": {"ada"}, "password": {"secret"}}, false)
	require.Equal(h.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(h.t, "/", resp.Header.Get("Location"))
}

func (h *harness) tab() *console.Tab {
	h.t.Helper()
	u, _ := url.Parse(h.srv.URL)
	cookies := h.client.Jar.Cookies(u)
	require.NotEmpty(h.t, cookies)
	tab, ok := h.console.Tabs().Lookup(cookies[0].Value)
	require.True(h.t, ok)
	return tab
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/healthz", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestSignedOutFullLoadRedirectsToLogin(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/users?page=2", false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fusers%3Fpage%3D2", resp.Header.Get("Location"))

	resp, body := h.get("/login?redirect=%2Fusers%3Fpage%3D2", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `name="redirect" value="/users?page=2"`)
}

func TestLoginRedirectsBackToTarget(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.postForm("/login", url.Values{
		"username": {"ada"}, "password": {"secret"}, "redirect": {"/users?page=2"},
	}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/users?page=2", resp.Header.Get("HX-Redirect"))
}

func TestLoginRejectsOffsiteRedirect(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.postForm("/login", url.Values{
		"username": {"ada"}, "password": {"secret"}, "redirect": {"//evil.example/"},
	}, false)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	h := newHarness(t)
	resp, body := h.postForm("/login", url.Values{"username": {"ada"}, "password": {"nope"}}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Wrong username or password")
	assert.Contains(t, body, `value="ada"`)
	assert.NotContains(t, body, "<!doctype html>")
}

func TestSignedInUserLeavesLoginPage(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	resp, _ := h.get("/login", false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestListNavigationFragment(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	resp, body := h.get("/users?page=2&q=ad", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/users?page=2&q=ad", resp.Header.Get("HX-Push-Url"))
	assert.NotContains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Users | Vango Admin</title>")
	assert.Contains(t, body, `hx-swap-oob="true"`)
	assert.Contains(t, body, `data-id="1"`)
	assert.Contains(t, body, "grace@example.com")
	assert.Contains(t, body, `name="ids"`)
	assert.Contains(t, body, `href="/users?q=ad"`, "pager links keep the search")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Equal(t, "Bearer tok-ada", h.backend.lastAuth)
	assert.Equal(t, "2", h.backend.lastQuery.Get("current"))
	assert.Equal(t, "10", h.backend.lastQuery.Get("size"))
	assert.Equal(t, "ad", h.backend.lastQuery.Get("keyword"))

	tab := h.tab()
	assert.Equal(t, "Users", tab.Title())
	assert.Equal(t, "/users", tab.ActiveMenu())
}

func TestFullPageLoadRendersShell(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	resp, body := h.get("/users", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `<main id="`+router.OutletID+`">`)
	assert.Contains(t, body, `<span class="user-name">Ada</span>`)
	assert.Contains(t, body, `class="nav-link active"`)
	assert.NotContains(t, body, `hx-swap-oob`)
}

func TestPermissionGuardAbortsWithToast(t *testing.T) {
	h := newHarness(t)
	h.backend.roles = []string{"viewer"}
	h.backend.permissions = []string{"system:user:list"}
	h.signIn()

	resp, _ := h.get("/users", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := h.get("/products", true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "none", resp.Header.Get("HX-Reswap"))
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "You do not have permission")
	assert.Empty(t, body)

	tab := h.tab()
	assert.Equal(t, "/users", tab.Controller().Current().Path, "an aborted navigation keeps the current route")
}

func TestSidebarFollowsPermissions(t *testing.T) {
	h := newHarness(t)
	h.backend.roles = []string{"viewer"}
	h.backend.permissions = []string{"system:user:list"}
	h.signIn()

	_, body := h.get("/users", false)
	assert.Contains(t, body, `href="/users"`)
	assert.NotContains(t, body, `href="/products"`)
	assert.Contains(t, body, `href="/docs"`)
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	resp, body := h.get("/no/such/page", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")

	resp, body = h.get("/no/such/page", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/no/such/page", resp.Header.Get("HX-Push-Url"))
	assert.Contains(t, body, "Page not found")
}

func TestUnauthorizedResponseSignsOut(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.backend.mu.Lock()
	h.backend.unauthorized = true
	h.backend.mu.Unlock()

	resp, _ := h.get("/users", true)
	assert.Equal(t, "/login?redirect=%2Fusers", resp.Header.Get("HX-Redirect"))
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "session has expired")
	assert.False(t, h.tab().Credentials().SignedIn(context.Background()))

	resp, _ = h.get("/", false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHistoryRestorePops(t *testing.T) {
	h := newHarness(t)

	h.get("/docs", true)
	h.get("/docs/lists", true)
	tab := h.tab()
	hist := tab.Controller().History().(*router.MemoryHistory)
	require.Equal(t, 3, hist.Len())

	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/docs", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-History-Restore-Request", "true")
	resp, body := h.do(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("HX-Push-Url"))
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "Console guide")
	assert.Equal(t, 3, hist.Len(), "a restore does not write history")
	assert.Equal(t, "/docs", tab.Controller().Current().Path)
}

func TestDocsArePublic(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/docs/configuration", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "VANGO_ADMIN_SERVER_PORT")

	resp, body = h.get("/docs/missing", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestBatchDelete(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.get("/users?page=2", true)

	resp, body := h.postForm("/users/batch-delete", url.Values{"ids": {"1", "2", "1"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/users?page=2", resp.Header.Get("HX-Replace-Url"))
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Deleted 2 users.")
	assert.Contains(t, body, "ada@example.com")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Equal(t, []string{"1", "2"}, h.backend.deleted)
}

func TestBatchDeleteNeedsSelection(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	resp, _ := h.postForm("/users/batch-delete", url.Values{}, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Select at least one user.")
}

func TestBatchDeleteChecksPermission(t *testing.T) {
	h := newHarness(t)
	h.backend.roles = []string{"viewer"}
	h.signIn()

	resp, _ := h.postForm("/users/batch-delete", url.Values{"ids": {"1"}}, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "permission")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Empty(t, h.backend.deleted)
}

func TestBatchDeleteUnknownResource(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	resp, _ := h.postForm("/widgets/batch-delete", url.Values{"ids": {"1"}}, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadForwardsFile(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = io.WriteString(part, "hello from the console")
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/files/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("HX-Request", "true")
	resp, _ := h.do(req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/files", resp.Header.Get("HX-Replace-Url"))
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Uploaded notes.txt.")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Equal(t, "hello from the console", h.backend.uploaded["notes.txt"])
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.get("/users", true)
	before := h.tab()

	resp, _ := h.postForm("/logout", nil, true)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
	assert.False(t, before.Credentials().SignedIn(context.Background()))

	resp, _ = h.get("/users", false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.NotSame(t, before, h.tab(), "logout drops the navigation state")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.get("/docs", true)

	resp, body := h.get("/metrics", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "vango_admin_http_requests_total")
	assert.Contains(t, body, `vango_admin_navigations_total{outcome="committed",route="/docs"} 1`)
	assert.Contains(t, body, "vango_admin_active_sessions 1")
}

func TestRouteTable(t *testing.T) {
	h := newHarness(t)
	table := h.console.Table()

	for _, path := range []string{
		"/", "/login", "/users", "/users/7", "/products", "/products/3", "/product-types",
		"/roles", "/menus", "/permissions", "/reports", "/reports/1", "/files",
		"/redis", "/redis/user:1", "/security/config", "/docs", "/docs/lists",
	} {
		_, ok := table.Resolve(path)
		assert.True(t, ok, path)
	}
	m, ok := table.Resolve("/users/7")
	require.True(t, ok)
	assert.Equal(t, "7", m.Params.Get("id"))
	assert.Equal(t, "system:user:query", m.Route.Meta.String("permission"))
}

func TestPageBeyondLastShowsLastPage(t *testing.T) {
	h := newHarness(t)
	h.backend.userTotal = 47
	h.signIn()

	resp, body := h.get("/users?page=9", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, "41-47 of 47")

	h.backend.mu.Lock()
	queries := h.backend.userQueries
	h.backend.mu.Unlock()
	require.Len(t, queries, 2)
	assert.Equal(t, "9", queries[0].Get("current"))
	assert.Equal(t, "5", queries[1].Get("current"), "the clamped page is fetched again")
}

func TestSearchOffersClearLink(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, body := h.get("/users?page=2&q=ad", true)
	assert.Contains(t, body,
		`<a href="/users" hx-get="/users" hx-target="#outlet" hx-push-url="true" data-link="true">Clear search</a>`)

	_, body = h.get("/users", true)
	assert.NotContains(t, body, "Clear search")
}

func TestListDecodesBackendDates(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, body := h.get("/users", true)
	assert.Contains(t, body, "2024-01-02 10:00")
	assert.Contains(t, body, ">-</td>", "a null date renders as a dash")
}

func TestFileLinksDropScriptURLs(t *testing.T) {
	h := newHarness(t)
	h.backend.files = []map[string]any{
		{"id": 1, "name": "evil.txt", "url": "javascript:alert(document.cookie)"},
		{"id": 2, "name": "report.pdf", "url": "https://cdn.example.com/report.pdf"},
	}
	h.signIn()

	resp, body := h.get("/files", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "javascript:")
	assert.Contains(t, body, "evil.txt")
	assert.Contains(t, body, `href="https://cdn.example.com/report.pdf"`)
}

func TestDetailRouteParsesID(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	resp, body := h.get("/users/1", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ada@example.com")

	_, body = h.get("/users/abc", true)
	assert.Contains(t, body, "Page not found")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Equal(t, []string{"1"}, h.backend.fetchedIDs, "a non-numeric id never reaches the backend")
}

func TestActionToastsReachOtherWindows(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	tab := h.tab()

	events, cancel := h.console.Hub().Subscribe(tab.ID)
	defer cancel()

	win := uuid.NewString()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/users/batch-delete", strings.NewReader(url.Values{"ids": {"1"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-Console-Window", win)
	resp, _ := h.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Deleted 1 user.")
	assert.NotContains(t, resp.Header.Get("HX-Trigger"), win, "the acting window gets its toast untagged")

	select {
	case ev := <-events:
		assert.Equal(t, toast.EventName, ev.Name)
		assert.Equal(t, toast.Toast{Level: toast.TypeSuccess, Message: "Deleted 1 user.", Origin: win}, ev.Data)
	default:
		t.Fatal("no toast pushed to the session")
	}
}

func TestExpiredSessionToastReachesOtherWindows(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	tab := h.tab()
	events, cancel := h.console.Hub().Subscribe(tab.ID)
	defer cancel()

	h.backend.mu.Lock()
	h.backend.unauthorized = true
	h.backend.mu.Unlock()
	h.get("/users", true)

	var names []string
	for len(events) > 0 {
		ev := <-events
		names = append(names, ev.Name)
		if ev.Name == toast.EventName {
			assert.Contains(t, ev.Data.(toast.Toast).Message, "session has expired")
		}
	}
	assert.Equal(t, []string{toast.EventName, live.EventLogout}, names)
}

func TestShutdownWarnsLiveStreams(t *testing.T) {
	h := newHarness(t)
	events, cancel := h.console.Hub().Subscribe("elsewhere")
	defer cancel()

	require.NoError(t, h.console.Shutdown(context.Background()))

	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, toast.EventName, ev.Name)
	assert.Equal(t, toast.TypeWarning, ev.Data.(toast.Toast).Level)
	_, ok = <-events
	assert.False(t, ok, "the stream closes after the warning")
}

func TestSignOutElsewhereApplies(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	resp, _ := h.get("/", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Another replica signs the session out in the shared store.
	require.NoError(t, h.sessions.Delete(context.Background(), h.tab().ID))

	resp, _ = h.get("/", false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
