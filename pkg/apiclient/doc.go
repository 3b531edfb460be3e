// Package apiclient talks to the admin backend's JSON API.
//
// A Client joins paths onto one base URL, attaches the session's bearer
// token, retries transient failures with a fixed delay and unwraps the
// backend's response envelopes. Two envelope shapes are accepted:
//
//	{"code": 0, "message": "ok", "data": ...}
//	{"success": true, "message": "ok", "data": ...}
//
// Paginated payloads are adapted once into Page[T], whatever key the
// backend used for the rows.
//
// Failures come back as *Error carrying the HTTP status, the application
// code and any payload, so callers can branch with errors.As or with the
// sentinel errors ErrTimeout, ErrUnauthorized and ErrNetwork.
package apiclient
