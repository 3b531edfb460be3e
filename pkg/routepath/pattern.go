package routepath

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Pattern compile errors.
var (
	ErrEmptyPattern    = errors.New("routepath: empty pattern")
	ErrBadParamName    = errors.New("routepath: invalid parameter name")
	ErrDuplicateParam  = errors.New("routepath: duplicate parameter name")
	ErrCaptureMismatch = errors.New("routepath: capture groups do not match parameter names")
	ErrMissingParam    = errors.New("routepath: missing parameter value")
	ErrInvalidExpr     = errors.New("routepath: compiled expression is invalid")
)

var paramNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segmentKind uint8

const (
	segLiteral segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind segmentKind
	text string
}

// Pattern is a compiled route pattern.
// It is immutable and safe for concurrent use.
type Pattern struct {
	raw      string
	re       *regexp.Regexp
	names    []string
	segments []segment
	root     bool
}

// Compile turns a route pattern into a Pattern.
func Compile(pattern string) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrEmptyPattern
	}
	if !strings.HasPrefix(pattern, "/") {
		pattern = "/" + pattern
	}

	p := &Pattern{raw: pattern}

	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		p.root = true
		p.re = regexp.MustCompile(`^/?$`)
		return p, nil
	}

	var expr strings.Builder
	expr.WriteString("^")
	seen := make(map[string]bool)

	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" {
			continue
		}
		expr.WriteByte('/')

		switch {
		case strings.HasPrefix(seg, ":"):
			name := seg[1:]
			if !paramNameRe.MatchString(name) {
				return nil, fmt.Errorf("%w: %q in %q", ErrBadParamName, seg, pattern)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, pattern)
			}
			seen[name] = true
			p.names = append(p.names, name)
			p.segments = append(p.segments, segment{kind: segParam, text: name})
			expr.WriteString(`([^/]+)`)

		case strings.Contains(seg, "*"):
			for i, part := range strings.Split(seg, "*") {
				if i > 0 {
					expr.WriteString(`.*`)
				}
				expr.WriteString(regexp.QuoteMeta(part))
			}
			p.segments = append(p.segments, segment{kind: segWildcard, text: seg})

		default:
			expr.WriteString(regexp.QuoteMeta(seg))
			p.segments = append(p.segments, segment{kind: segLiteral, text: seg})
		}
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpr, err)
	}
	if re.NumSubexp() != len(p.names) {
		return nil, fmt.Errorf("%w: %d groups, %d names", ErrCaptureMismatch, re.NumSubexp(), len(p.names))
	}
	p.re = re
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match tests path and returns the captured params on success.
// Captured values are percent-decoded; a value that decodes to
// something containing "/" does not match.
func (p *Pattern) Match(path string) (Params, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(Params, 0, len(p.names))
	for i, name := range p.names {
		v, err := DecodeSegment(m[i+1], false)
		if err != nil {
			return nil, false
		}
		params = append(params, Param{Name: name, Value: v})
	}
	return params, true
}

// Matches reports whether path matches the pattern.
func (p *Pattern) Matches(path string) bool {
	_, ok := p.Match(path)
	return ok
}

// Build substitutes params back into the pattern. Wildcards are replaced
// with the empty string, so the result is the shortest path the pattern
// accepts for those params.
func (p *Pattern) Build(params Params) (string, error) {
	if p.root {
		return "/", nil
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		switch s.kind {
		case segParam:
			v, ok := params.Lookup(s.text)
			if !ok || v == "" {
				return "", fmt.Errorf("%w: %s", ErrMissingParam, s.text)
			}
			b.WriteString(url.PathEscape(v))
		case segWildcard:
			b.WriteString(strings.ReplaceAll(s.text, "*", ""))
		default:
			b.WriteString(s.text)
		}
	}
	return b.String(), nil
}

// String returns the pattern as declared (with a leading "/").
func (p *Pattern) String() string { return p.raw }

// Expr returns the compiled regular expression source.
func (p *Pattern) Expr() string { return p.re.String() }

// Names returns the placeholder names in declaration order.
func (p *Pattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// IsRoot reports whether this is the root pattern "/".
func (p *Pattern) IsRoot() bool { return p.root }
