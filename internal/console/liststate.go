package console

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
)

// MaxPageSize bounds the page size a URL may ask for.
const MaxPageSize = 100

// Query keys of list pages.
const (
	queryPage    = "page"
	querySize    = "size"
	queryKeyword = "q"
	querySelect  = "ids"
)

// ListState is the view-model of a list page. It is parsed from the URL on
// every navigation and encoded back into every link the page renders, so
// the URL alone reproduces the view.
type ListState struct {
	Page     int
	Size     int
	Keyword  string
	Selected []string

	defaultSize int
}

// ParseListState reads a ListState from q. Missing or malformed values
// fall back to page 1 and defaultSize.
func ParseListState(q url.Values, defaultSize int) ListState {
	if defaultSize <= 0 {
		defaultSize = 10
	}
	s := ListState{Page: 1, Size: defaultSize, defaultSize: defaultSize}
	if p, err := strconv.Atoi(q.Get(queryPage)); err == nil && p > 0 {
		s.Page = p
	}
	if n, err := strconv.Atoi(q.Get(querySize)); err == nil && n > 0 {
		s.Size = min(n, MaxPageSize)
	}
	s.Keyword = strings.TrimSpace(q.Get(queryKeyword))
	for _, id := range q[querySelect] {
		if id != "" && !slices.Contains(s.Selected, id) {
			s.Selected = append(s.Selected, id)
		}
	}
	return s
}

// Params converts the state into backend list parameters.
func (s ListState) Params() apiclient.ListParams {
	return apiclient.ListParams{Page: s.Page, Size: s.Size, Keyword: s.Keyword}
}

// WithPage returns a copy on page p. Selection does not survive paging.
func (s ListState) WithPage(p int) ListState {
	s.Page = p
	s.Selected = nil
	return s
}

// WithKeyword returns a copy searching for kw from page 1.
func (s ListState) WithKeyword(kw string) ListState {
	s.Keyword = kw
	s.Page = 1
	s.Selected = nil
	return s
}

// IsSelected reports whether id is checked.
func (s ListState) IsSelected(id string) bool {
	return slices.Contains(s.Selected, id)
}

// Query encodes the state, omitting defaults.
func (s ListState) Query() url.Values {
	q := url.Values{}
	if s.Page > 1 {
		q.Set(queryPage, strconv.Itoa(s.Page))
	}
	if s.Size > 0 && s.Size != s.defaultSize {
		q.Set(querySize, strconv.Itoa(s.Size))
	}
	if s.Keyword != "" {
		q.Set(queryKeyword, s.Keyword)
	}
	for _, id := range s.Selected {
		q.Add(querySelect, id)
	}
	return q
}

// URL returns base with the encoded state attached.
func (s ListState) URL(base string) string {
	if q := s.Query().Encode(); q != "" {
		return base + "?" + q
	}
	return base
}
