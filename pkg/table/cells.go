package table

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy

	md = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// Text renders s escaped.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

// HTML renders backend-supplied markup after sanitizing it.
func HTML(s string) templ.Component {
	return templ.Raw(sanitizer().Sanitize(s))
}

// Markdown renders GitHub-flavored markdown as sanitized HTML.
func Markdown(src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return err
		}
		_, err := w.Write(sanitizer().SanitizeBytes(buf.Bytes()))
		return err
	})
}

// Badge renders s as a status badge with the given variant class.
func Badge(s, variant string) templ.Component {
	return badge(s, variant)
}

// Link renders an anchor to href that opens in a new tab. Only http(s)
// and same-origin relative URLs become links; for anything else, such as
// a javascript: URL from the backend, only the label is shown.
func Link(href, label string) templ.Component {
	if !Linkable(href) {
		return Text(label)
	}
	return externalLink(href, label)
}

// Linkable reports whether href is an absolute http(s) URL or a relative
// reference without a host.
func Linkable(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "":
		return u.Host == "" && !strings.HasPrefix(href, "//")
	}
	return false
}
