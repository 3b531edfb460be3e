// Package errors provides structured, actionable errors for vango-admin.
//
// Each registered error has a code (e.g. "E103") that maps to a short
// message, a longer explanation, an optional hint and a documentation URL.
// The CLI prints them with Format; the console turns them into toasts.
//
// # Error Categories
//
//   - config: admin.json or environment problems
//   - network, timeout: the backend could not be reached in time
//   - auth, permission: the session expired or lacks a permission
//   - validation, backend: the backend rejected the request
//   - navigation: guard redirect loops and malformed targets
//   - upload: staged file problems
//   - canceled: a newer navigation or the client went away
//
// Classify maps any error raised in the console to a category, and
// Describe maps it to a registered Error:
//
//	if err := cfg.Validate(); err != nil {
//	    errors.PrintError(err)
//	}
//
//	toast.Error(toast.From(ctx), errors.Describe(err).Message)
package errors
