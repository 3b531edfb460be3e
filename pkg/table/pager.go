package table

import (
	"strconv"

	"github.com/a-h/templ"
)

// DefaultSize is the page size used when none is given.
const DefaultSize = 10

// Pager is a clamped pagination position.
type Pager struct {
	// Current is the 1-based page, always within [1, max(Pages, 1)].
	Current int
	// Total is the number of items across all pages.
	Total int
	// Size is the number of items per page.
	Size int
	// Pages is ceil(Total/Size); zero when there are no items.
	Pages int
}

// NewPager clamps current into [1, ceil(total/size)]. A non-positive size
// falls back to DefaultSize and a negative total counts as zero.
func NewPager(current, total, size int) Pager {
	if size <= 0 {
		size = DefaultSize
	}
	if total < 0 {
		total = 0
	}
	pages := (total + size - 1) / size
	if current > pages {
		current = pages
	}
	if current < 1 {
		current = 1
	}
	return Pager{Current: current, Total: total, Size: size, Pages: pages}
}

// Disabled reports whether there is nothing to page through.
func (p Pager) Disabled() bool { return p.Pages == 0 }

// Offset is the index of the first item on the current page.
func (p Pager) Offset() int { return (p.Current - 1) * p.Size }

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool { return p.Current > 1 }

// HasNext reports whether a next page exists.
func (p Pager) HasNext() bool { return p.Current < p.Pages }

// Range returns the 1-based item numbers shown on the current page, or
// 0, 0 when there are none.
func (p Pager) Range() (first, last int) {
	if p.Disabled() {
		return 0, 0
	}
	first = p.Offset() + 1
	last = min(p.Offset()+p.Size, p.Total)
	return first, last
}

// Window returns up to n consecutive page numbers around the current page.
func (p Pager) Window(n int) []int {
	if p.Disabled() || n <= 0 {
		return nil
	}
	n = min(n, p.Pages)
	start := max(p.Current-n/2, 1)
	if start+n-1 > p.Pages {
		start = p.Pages - n + 1
	}
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// Slice returns the rows of the pager's current page.
func Slice[T any](rows []T, p Pager) []T {
	lo := min(p.Offset(), len(rows))
	hi := min(lo+p.Size, len(rows))
	return rows[lo:hi]
}

// windowSize is how many page numbers RenderPager shows.
const windowSize = 7

// pageItem is one control of the pager. An empty href renders it inert.
type pageItem struct {
	label   string
	href    string
	page    int
	current bool
}

// RenderPager renders pagination controls. pageURL returns the link target
// for a page; following it is how a page change reaches the caller.
func RenderPager(p Pager, pageURL func(page int) string) templ.Component {
	item := func(label string, page int, enabled, current bool) pageItem {
		it := pageItem{label: label, page: page, current: current}
		if enabled {
			it.href = pageURL(page)
		}
		return it
	}
	items := []pageItem{item("Previous", p.Current-1, p.HasPrev(), false)}
	for _, n := range p.Window(windowSize) {
		items = append(items, item(strconv.Itoa(n), n, n != p.Current, n == p.Current))
	}
	items = append(items, item("Next", p.Current+1, p.HasNext(), false))
	return pagerView(p, items)
}

func (p Pager) summary() string {
	if p.Disabled() {
		return "0 items, 0 pages"
	}
	first, last := p.Range()
	return strconv.Itoa(first) + "-" + strconv.Itoa(last) + " of " + strconv.Itoa(p.Total)
}
