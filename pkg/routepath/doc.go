// Package routepath compiles route patterns and normalizes navigation paths.
//
// A pattern is a "/"-delimited template. Each segment is one of:
//
//	users       literal, matched exactly (regexp metacharacters are escaped)
//	:id         placeholder, matches one segment and captures it as "id"
//	*           wildcard, matches any remaining suffix and is not captured
//	*.csv       wildcard with literal text around it
//
// The root pattern "/" only matches the empty path. It never matches a
// prefix of a longer path.
//
//	p, _ := routepath.Compile("/users/:id")
//	params, ok := p.Match("/users/42")
//	// ok == true, params.Get("id") == "42"
//
// Paths should be canonicalized with CanonicalizePath before matching so
// that "/users/42/" and "/users//42" resolve the same way.
package routepath
