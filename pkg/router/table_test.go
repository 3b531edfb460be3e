package router

import (
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) Handler {
	return func(ctx context.Context, req *Request) (templ.Component, error) {
		return templ.Raw(s), nil
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	tbl := NewTable()
	show := tbl.MustAdd("/users/:id", text("show"))
	tbl.MustAdd("/users/new", text("new"))

	m, ok := tbl.Resolve("/users/new")
	require.True(t, ok)
	assert.Same(t, show, m.Route)
	assert.Equal(t, "new", m.Params.Get("id"))
}

func TestTableKeepsDuplicatePatterns(t *testing.T) {
	tbl := NewTable()
	first := tbl.MustAdd("/reports/:id", text("a"))
	tbl.MustAdd("/reports/:rid", text("b"))

	assert.Equal(t, 2, tbl.Len())
	m, ok := tbl.Resolve("/reports/3")
	require.True(t, ok)
	assert.Same(t, first, m.Route)
}

func TestTableResolveMiss(t *testing.T) {
	tbl := NewTable()
	tbl.MustAdd("/", text("home"))
	tbl.MustAdd("/users", text("users"))

	_, ok := tbl.Resolve("/products")
	assert.False(t, ok)

	m, ok := tbl.Resolve("/")
	require.True(t, ok)
	assert.Equal(t, "/", m.Route.Pattern)
}

func TestTableAddErrors(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.Add("/users/:", text("x"))
	assert.Error(t, err)

	_, err = tbl.Add("/users", nil)
	assert.Error(t, err)

	assert.Panics(t, func() { tbl.MustAdd("", text("x")) })
	assert.Equal(t, 0, tbl.Len())
}

func TestRouteOptionsAndLookup(t *testing.T) {
	tbl := NewTable()
	r := tbl.MustAdd("/users/:id", text("x"),
		WithName("user.show"),
		WithMeta("permission", "user:read"),
		WithMeta("public", false),
	)

	got, ok := tbl.Lookup("user.show")
	require.True(t, ok)
	assert.Same(t, r, got)
	assert.Equal(t, "user:read", r.Meta.String("permission"))
	assert.False(t, r.Meta.Bool("public"))
	assert.True(t, r.Meta.Has("public"))
	assert.False(t, r.Meta.Has("title"))

	m, _ := tbl.Resolve("/users/9")
	u, err := r.URL(m.Params)
	require.NoError(t, err)
	assert.Equal(t, "/users/9", u)

	_, ok = tbl.Lookup("missing")
	assert.False(t, ok)
}

func TestRoutesReturnsCopy(t *testing.T) {
	tbl := NewTable()
	tbl.MustAdd("/a", text("a"))
	routes := tbl.Routes()
	routes[0] = nil
	assert.NotNil(t, tbl.Routes()[0])
}
