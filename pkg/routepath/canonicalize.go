package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Canonical is a normalized navigation target.
type Canonical struct {
	// Path is the normalized path, always starting with "/".
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether normalization modified the path.
	Changed bool
}

// String returns the path with its query string re-attached.
func (c Canonical) String() string {
	if c.Query == "" {
		return c.Path
	}
	return c.Path + "?" + c.Query
}

// Path canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in segment")
)

// CanonicalizePath normalizes a path before route matching.
//
// Trailing slashes are dropped (except for "/"), repeated slashes collapse,
// "." segments are removed and ".." segments are resolved. Backslashes, NUL
// bytes, malformed percent escapes and ".." above root are rejected. A
// query string is split off and returned untouched.
func CanonicalizePath(input string) (Canonical, error) {
	if input == "" {
		return Canonical{Path: "/", Changed: true}, nil
	}

	path, query := SplitPathAndQuery(input)

	if strings.Contains(path, "\\") {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") && !validEscapes(path) {
		return Canonical{}, ErrInvalidPercentEscape
	}

	kept := make([]string, 0, strings.Count(path, "/")+1)
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(kept) == 0 {
				return Canonical{}, ErrPathEscapesRoot
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, seg)
		}
	}

	out := "/" + strings.Join(kept, "/")
	return Canonical{Path: out, Query: query, Changed: out != path}, nil
}

// CanonicalizeAndValidateNavPath canonicalizes a navigation target that
// must be a same-origin relative path. Absolute and protocol-relative URLs
// are rejected so a guard redirect can never become an open redirect.
func CanonicalizeAndValidateNavPath(target string) (string, error) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", ErrInvalidPath
	}
	c, err := CanonicalizePath(target)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// SplitPathAndQuery splits at the first "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

// DecodeSegment percent-decodes one path segment. Unless the segment is
// part of a wildcard suffix, a decoded "/" is rejected.
func DecodeSegment(segment string, wildcard bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !wildcard && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

func validEscapes(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
