package console

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/routepath"
	"github.com/vango-dev/vango-admin/pkg/session"
	"github.com/vango-dev/vango-admin/pkg/toast"
)

// Route meta keys.
const (
	// metaPublic routes are reachable without signing in.
	metaPublic = "public"
	// metaGuestOnly routes send signed-in users to the dashboard.
	metaGuestOnly = "guestOnly"
	// metaPermission names the permission a route needs.
	metaPermission = "permission"
	metaTitle      = "title"
	// metaMenu is the sidebar label of a route shown in the fallback menu.
	metaMenu = "menu"
	// metaSection is the menu path highlighted while the route is shown.
	metaSection = "section"
)

const loginPath = "/login"

// loginURL returns the sign-in page remembering target.
func loginURL(target string) string {
	if target == "" || target == "/" || target == loginPath {
		return loginPath
	}
	return loginPath + "?redirect=" + url.QueryEscape(target)
}

// safeRedirect returns target when it is a same-origin path, "/" otherwise.
func safeRedirect(target string) string {
	if target == "" {
		return "/"
	}
	nav, err := routepath.CanonicalizeAndValidateNavPath(target)
	if err != nil {
		return "/"
	}
	return nav
}

// authGuard sends signed-out users to the sign-in page and signed-in users
// away from guest-only pages.
func authGuard(creds *session.Credentials) router.Guard {
	return func(ctx context.Context, to, from *router.State) (router.Decision, error) {
		signedIn := creds.SignedIn(ctx)
		meta := to.Meta()
		switch {
		case signedIn && meta.Bool(metaGuestOnly):
			return router.RedirectTo("/"), nil
		case signedIn || meta.Bool(metaPublic):
			return router.Continue(), nil
		}
		return router.RedirectTo(loginURL(to.URL())), nil
	}
}

// permissionGuard aborts navigations to routes whose permission the user
// lacks. The user stays where they are and gets an error toast.
func permissionGuard(creds *session.Credentials) router.Guard {
	return router.Skip(router.MetaFlag(metaPublic), func(ctx context.Context, to, from *router.State) (router.Decision, error) {
		perm := to.Meta().String(metaPermission)
		if perm == "" || creds.HasPermission(ctx, perm) {
			return router.Continue(), nil
		}
		toast.Error(toast.From(ctx), "You do not have permission to open this page.")
		return router.Abort(), nil
	})
}

// viewHook records the title and highlighted menu of the committed route.
func viewHook(t *Tab) router.AfterHook {
	return func(ctx context.Context, to, from *router.State) {
		if to.Route == nil {
			t.setView("Not found", "")
			return
		}
		meta := to.Meta()
		section := meta.String(metaSection)
		if section == "" {
			section = to.Path
		}
		t.setView(meta.String(metaTitle), section)
	}
}

// touchHook extends the credentials' lifetime on activity.
func touchHook(creds *session.Credentials, logger *slog.Logger) router.AfterHook {
	return func(ctx context.Context, to, from *router.State) {
		if !creds.SignedIn(ctx) {
			return
		}
		if err := creds.Touch(ctx); err != nil {
			logger.Warn("touch session", "session", creds.SessionID(), "error", err)
		}
	}
}
