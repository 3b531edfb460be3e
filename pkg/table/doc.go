// Package table renders data tables and pagination controls as templ
// components.
//
// Everything here is a pure function of its inputs. Page, size and
// keyword live with the caller, typically in a list view-model, and the
// pager only asks the caller how to link to a given page:
//
//	p := table.NewPager(state.Page, page.Total, state.Size)
//	body := table.Render(cols, page.Records, table.Options[User]{})
//	nav := table.RenderPager(p, func(n int) string { return state.WithPage(n).URL("/users") })
package table

//go:generate templ generate
