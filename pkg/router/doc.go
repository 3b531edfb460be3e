// Package router implements the console's route table and navigation
// controller.
//
// The router provides:
//   - An ordered route table where the first structural match wins
//   - Compiled patterns with ":param" and "*" segments (see routepath)
//   - A navigation controller with before-guards and after-hooks
//   - Push/replace history handling and an outlet for rendered content
//
// # Route Table
//
// Routes are registered once at startup and never change afterwards.
// Resolution scans them in registration order:
//
//	t := router.NewTable()
//	t.MustAdd("/users/:id", users.Show)
//	t.MustAdd("/users/new", users.New) // unreachable: /users/:id matches first
//
// Two patterns that compile to the same expression are both kept; only the
// earlier one is ever reached.
//
// # Navigation
//
// A Controller moves through three phases: Idle, Resolving (guards
// running) and Committed (content rendered, history updated).
//
//	c := router.New(t,
//	    router.WithHistory(h),
//	    router.WithOutlet(o),
//	    router.BeforeEach(requireLogin),
//	    router.AfterEach(highlightMenu),
//	)
//	res, err := c.Navigate(ctx, "/users/42")
//
// Navigate pushes a history entry, Redirect replaces the current one and
// Pop (browser back/forward) leaves history alone.
//
// Guards run sequentially. A guard may continue, abort (nothing changes) or
// redirect (resolution restarts with the new target). A guard that fails
// or panics aborts the navigation.
//
// Navigations are last-write-wins: starting one cancels the context of the
// one in flight, and the superseded navigation returns ErrSuperseded
// without committing.
package router
