package router

import "github.com/a-h/templ"

//go:generate templ generate

// OutletID is the DOM id of the content region navigations swap.
const OutletID = "outlet"

// Link renders an anchor marked for client-side routing. Clicking it issues
// a navigation instead of a full page load. Hrefs with a scheme other than
// http(s), mailto, tel or ftp render as an inert URL.
func Link(href, label string) templ.Component {
	return link(href, label, false, false)
}

// NavLink renders a routed anchor that carries the "active" class when
// active is true.
func NavLink(href, label string, active bool) templ.Component {
	return link(href, label, true, active)
}
