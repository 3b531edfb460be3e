package console

import (
	"context"
	"io"

	"github.com/a-h/templ"

	apperrors "github.com/vango-dev/vango-admin/internal/errors"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/session"
	"github.com/vango-dev/vango-admin/pkg/table"
	"github.com/vango-dev/vango-admin/pkg/toast"
)

//go:generate templ generate

// SidebarID is the DOM id of the menu region, swapped out-of-band on every
// navigation.
const SidebarID = "sidebar"

// clientScript shows toasts raised through HX-Trigger or pushed over /ws,
// and leaves the page when the session is signed out elsewhere. Each window
// tags its htmx requests with an id so it can skip pushed copies of its own
// toasts.
const clientScript = `<script>
(function () {
  var win = window.crypto && crypto.randomUUID ? crypto.randomUUID() : "";
  document.body.addEventListener("htmx:configRequest", function (e) {
    if (win) e.detail.headers["` + headerWindow + `"] = win;
  });
  function show(list) {
    var box = document.getElementById("toasts");
    (Array.isArray(list) ? list : [list]).forEach(function (t) {
      if (!t || !t.message || (win && t.origin === win)) return;
      var el = document.createElement("div");
      el.className = "toast toast-" + (t.level || "info");
      el.textContent = (t.title ? t.title + ": " : "") + t.message;
      box.appendChild(el);
      setTimeout(function () { el.remove(); }, 4000);
    });
  }
  document.body.addEventListener("` + toast.EventName + `", function (e) {
    show(Array.isArray(e.detail) ? e.detail : (e.detail.value || e.detail));
  });
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (m) {
      var ev = JSON.parse(m.data);
      if (ev.event === "vango:logout") { location.href = "/login"; return; }
      if (ev.event === "` + toast.EventName + `") show(ev.data);
    };
    ws.onclose = function () { setTimeout(connect, 5000); };
  }
  connect();
})();
</script>`

// pageTitle joins the view title and the console name.
func pageTitle(title, name string) string {
	if title == "" {
		return name
	}
	return title + " | " + name
}

// shell is the full document around an outlet body.
type shell struct {
	name    string
	title   string
	user    string
	sidebar templ.Component
	body    []byte
}

func (s shell) Render(ctx context.Context, w io.Writer) error {
	return shellView(s).Render(ctx, w)
}

// fragment is an htmx navigation response: the outlet body plus the
// sidebar and title swapped out-of-band.
type fragment struct {
	title   string
	sidebar templ.Component
	body    []byte
}

func (f fragment) Render(ctx context.Context, w io.Writer) error {
	return fragmentView(f).Render(ctx, w)
}

// sidebar renders the menu tree with active highlighted. An oob sidebar
// replaces the one on the page when sent with a fragment.
func sidebar(menus []session.Menu, active string, oob bool) templ.Component {
	return sidebarView(menus, active, oob)
}

func errorView(ctx context.Context, req *router.Request, err error) templ.Component {
	e := apperrors.Describe(err)
	msg := e.Message
	if e.Detail != "" {
		msg = e.Detail
	}
	if apperrors.Classify(err) != apperrors.CategoryCanceled {
		toast.Error(toast.From(ctx), msg)
	}
	return errorPanel(e, req.Path)
}

func notFoundView(ctx context.Context, req *router.Request) (templ.Component, error) {
	return notFoundPage(req.Path), nil
}

// field is one row of a detail view.
type field struct {
	label string
	value templ.Component
}

func textField(label, value string) field { return field{label: label, value: table.Text(value)} }
