// Package console is the admin console: an HTTP server that keeps one
// navigation controller per browser session and renders backend resources
// as htmx-driven pages.
//
// A browser session is identified by a cookie. Each session gets a Tab
// holding its credentials, a backend client bound to them and a
// router.Controller with in-memory history. Page requests become
// navigations on that controller:
//
//   - htmx requests navigate and receive the outlet fragment, the page
//     title and an out-of-band sidebar; the URL is pushed or replaced
//     through HX-Push-Url / HX-Replace-Url.
//   - History restores (back/forward) pop to the URL the browser shows
//     without writing history.
//   - Full page loads render the whole shell. A guard redirect becomes a
//     303 so the address bar follows.
//
// Guards enforce sign-in and per-route permissions. List pages keep their
// page, size, search and selection in the query string (see ListState).
// Toasts queued while handling a request are delivered in HX-Trigger.
//
// Idle tabs are evicted by Manager; credentials outlive them in the
// session store until their TTL passes.
package console
