package table

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagerClamps(t *testing.T) {
	tests := []struct {
		name                   string
		current, total, size   int
		wantCurrent, wantPages int
	}{
		{"middle", 3, 47, 10, 3, 5},
		{"past end", 9, 47, 10, 5, 5},
		{"below one", -2, 47, 10, 1, 5},
		{"exact multiple", 2, 40, 10, 2, 4},
		{"empty", 3, 0, 10, 1, 0},
		{"default size", 1, 25, 0, 1, 3},
		{"negative total", 1, -5, 10, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPager(tc.current, tc.total, tc.size)
			assert.Equal(t, tc.wantCurrent, p.Current)
			assert.Equal(t, tc.wantPages, p.Pages)
		})
	}
}

func TestSliceLastPage(t *testing.T) {
	rows := make([]int, 47)
	for i := range rows {
		rows[i] = i + 1
	}
	p := NewPager(5, len(rows), 10)
	page := Slice(rows, p)
	require.Len(t, page, 7)
	assert.Equal(t, 41, page[0])
	assert.Equal(t, 47, page[6])

	first, last := p.Range()
	assert.Equal(t, 41, first)
	assert.Equal(t, 47, last)

	assert.Empty(t, Slice([]int{}, NewPager(1, 0, 10)))
}

func TestWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5}, NewPager(1, 47, 10).Window(7))
	assert.Equal(t, []int{2, 3, 4, 5, 6}, NewPager(4, 100, 10).Window(5))
	assert.Equal(t, []int{6, 7, 8, 9, 10}, NewPager(10, 100, 10).Window(5))
	assert.Nil(t, NewPager(1, 0, 10).Window(5))
}

func TestRenderPagerDisabledWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPager(1, 0, 10)
	require.NoError(t, RenderPager(p, func(n int) string { return "/users?current=" + strconv.Itoa(n) }).Render(context.Background(), &buf))

	out := buf.String()
	assert.True(t, p.Disabled())
	assert.Contains(t, out, `aria-disabled="true"`)
	assert.Contains(t, out, `data-pages="0"`)
	assert.Contains(t, out, "0 items, 0 pages")
	assert.NotContains(t, out, "<a ")
}

func TestRenderPagerLinks(t *testing.T) {
	var buf bytes.Buffer
	var asked []int
	p := NewPager(5, 47, 10)
	err := RenderPager(p, func(n int) string {
		asked = append(asked, n)
		return "/users?current=" + strconv.Itoa(n) + "&size=10"
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `data-pages="5"`)
	assert.Contains(t, out, "41-47 of 47")
	assert.Contains(t, out, `href="/users?current=4&amp;size=10"`)
	assert.Contains(t, out, `hx-target="#outlet"`)
	assert.Contains(t, out, `<span class="page-item disabled active" aria-current="page">5</span>`)
	assert.Contains(t, out, `<span class="page-item disabled">Next</span>`)
	assert.Equal(t, []int{4, 1, 2, 3, 4}, asked)
}
