package console

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"

	apperrors "github.com/vango-dev/vango-admin/internal/errors"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/toast"
)

// htmx request and response headers.
const (
	hxRequest        = "HX-Request"
	hxHistoryRestore = "HX-History-Restore-Request"
	hxPushURL        = "HX-Push-Url"
	hxReplaceURL     = "HX-Replace-Url"
	hxRedirect       = "HX-Redirect"
	hxReswap         = "HX-Reswap"
	hxTrigger        = "HX-Trigger"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get(hxRequest) == "true"
}

// handlePage maps a page request onto the tab's controller. An htmx request
// navigates and gets the outlet fragment; a history restore pops to the
// URL the browser already shows; anything else is a full page load.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tab := tabFrom(ctx)
	target := r.URL.RequestURI()

	restore := r.Header.Get(hxHistoryRestore) == "true"
	var (
		res *router.Result
		err error
	)
	if restore {
		res, err = tab.ctrl.Pop(ctx, target)
	} else {
		res, err = tab.ctrl.Navigate(ctx, target)
	}
	s.writeNavigation(w, r, tab, res, err, isHTMX(r) && !restore)
}

// writeNavigation answers with the outcome of a navigation, as a fragment
// for htmx swaps or as a full document.
func (s *Server) writeNavigation(w http.ResponseWriter, r *http.Request, tab *Tab, res *router.Result, err error, fragmentMode bool) {
	ctx := r.Context()

	switch {
	case errors.Is(err, router.ErrSuperseded), errors.Is(err, context.Canceled):
		s.noSwap(w, r)
		return
	case err != nil:
		if fragmentMode {
			toast.Error(toast.From(ctx), apperrors.Describe(err).Message)
			s.noSwap(w, r)
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, router.ErrInvalidTarget) {
			status = http.StatusBadRequest
		}
		s.writeShell(w, r, tab, status, renderBody(ctx, errorView(ctx, &router.Request{Path: "/"}, err)))
		return
	}

	if res.Outcome == router.OutcomeFailed && apperrors.Classify(res.Err) == apperrors.CategoryAuth {
		s.redirect(w, r, loginURL(res.URL))
		return
	}

	if res.Outcome == router.OutcomeAborted {
		if fragmentMode {
			s.noSwap(w, r)
			return
		}
		body := tab.outlet.Content()
		if len(body) == 0 {
			body = []byte(`<div class="alert alert-error" role="alert">You do not have access to this page.</div>`)
		}
		s.writeShell(w, r, tab, http.StatusForbidden, body)
		return
	}

	if fragmentMode {
		switch res.History {
		case router.HistoryPush:
			w.Header().Set(hxPushURL, res.URL)
		case router.HistoryReplace:
			w.Header().Set(hxReplaceURL, res.URL)
		}
		s.writeFragment(w, r, tab, res.Body)
		return
	}

	// A guard moved a full page load elsewhere; let the address bar follow.
	if res.Redirects > 0 && res.Outcome == router.OutcomeCommitted && res.URL != r.URL.RequestURI() {
		http.Redirect(w, r, res.URL, http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	switch res.Outcome {
	case router.OutcomeNotFound:
		status = http.StatusNotFound
	case router.OutcomeFailed:
		status = http.StatusBadGateway
		if apperrors.Classify(res.Err) == apperrors.CategoryInternal {
			status = http.StatusInternalServerError
		}
	}
	s.writeShell(w, r, tab, status, res.Body)
}

func renderBody(ctx context.Context, c templ.Component) []byte {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return []byte(`<div class="alert alert-error" role="alert">Something went wrong.</div>`)
	}
	return buf.Bytes()
}

func (s *Server) writeFragment(w http.ResponseWriter, r *http.Request, tab *Tab, body []byte) {
	ctx := r.Context()
	s.writeHTML(w, r, http.StatusOK, fragment{
		title:   pageTitle(tab.Title(), s.cfg.Name),
		sidebar: sidebar(visibleMenus(ctx, s.table, tab.creds), tab.ActiveMenu(), true),
		body:    body,
	})
}

func (s *Server) writeShell(w http.ResponseWriter, r *http.Request, tab *Tab, status int, body []byte) {
	ctx := r.Context()
	user := ""
	if tab.creds.SignedIn(ctx) {
		if p, err := tab.creds.Profile(ctx); err == nil {
			user = p.DisplayName()
		}
	}
	s.writeHTML(w, r, status, shell{
		name:    s.cfg.Name,
		title:   tab.Title(),
		user:    user,
		sidebar: sidebar(visibleMenus(ctx, s.table, tab.creds), tab.ActiveMenu(), false),
		body:    body,
	})
}

// writeHTML renders c in full before writing, so a render error can still
// become a 500.
func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		s.logger.Error("render response", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.setTrigger(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Add("Vary", hxRequest)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// setTrigger hands the queued toasts to htmx.
func (s *Server) setTrigger(w http.ResponseWriter, r *http.Request) {
	q, ok := toast.From(r.Context()).(*toast.Queue)
	if !ok {
		return
	}
	h, err := q.Header()
	if err != nil {
		s.logger.Error("encode toasts", "error", err)
		return
	}
	if h != "" {
		w.Header().Set(hxTrigger, h)
	}
}

// noSwap leaves the page as it is and only delivers toasts.
func (s *Server) noSwap(w http.ResponseWriter, r *http.Request) {
	s.setTrigger(w, r)
	w.Header().Set(hxReswap, "none")
	w.WriteHeader(http.StatusNoContent)
}

// redirect sends the browser to target with a full page load.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		s.setTrigger(w, r)
		w.Header().Set(hxRedirect, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
