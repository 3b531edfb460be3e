package router

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vango-admin/pkg/routepath"
)

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory("/")
	h.Push("/a")
	h.Push("/b")

	back, ok := h.Back()
	require.True(t, ok)
	assert.Equal(t, "/a", back)

	h.Push("/c")
	assert.Equal(t, []string{"/", "/a", "/c"}, h.Entries())
	_, ok = h.Forward()
	assert.False(t, ok)

	h.Replace("/d")
	assert.Equal(t, "/d", h.Current())
	assert.Equal(t, 3, h.Len())

	h.Back()
	h.Back()
	_, ok = h.Back()
	assert.False(t, ok)
	fwd, ok := h.Forward()
	require.True(t, ok)
	assert.Equal(t, "/a", fwd)
}

func TestBind(t *testing.T) {
	id := uuid.New()
	params := routepath.Params{
		{Name: "id", Value: "42"},
		{Name: "uid", Value: id.String()},
		{Name: "active", Value: "true"},
		{Name: "ratio", Value: "0.5"},
		{Name: "name", Value: "alice"},
	}

	var target struct {
		ID     int64     `param:"id"`
		UID    uuid.UUID `param:"uid"`
		Active bool      `param:"active"`
		Ratio  float64   `param:"ratio"`
		Name   string    `param:"name"`
		Page   uint      `param:"page"`
		Other  string
	}
	require.NoError(t, Bind(params, &target))
	assert.Equal(t, int64(42), target.ID)
	assert.Equal(t, id, target.UID)
	assert.True(t, target.Active)
	assert.Equal(t, 0.5, target.Ratio)
	assert.Equal(t, "alice", target.Name)
	assert.Zero(t, target.Page)
}

func TestBindErrors(t *testing.T) {
	var s struct {
		ID int `param:"id"`
	}
	err := Bind(routepath.Params{{Name: "id", Value: "abc"}}, &s)
	assert.ErrorContains(t, err, `param "id"`)

	assert.Error(t, Bind(routepath.Params{}, s))

	var u struct {
		ID uuid.UUID `param:"id"`
	}
	assert.Error(t, Bind(routepath.Params{{Name: "id", Value: "nope"}}, &u))
}

func TestLinks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Link("/users?q=a&b", "<Users>").Render(context.Background(), &buf))
	assert.Equal(t,
		`<a href="/users?q=a&amp;b" hx-get="/users?q=a&amp;b" hx-target="#outlet" hx-push-url="true" data-link="true">&lt;Users&gt;</a>`,
		buf.String())

	buf.Reset()
	require.NoError(t, NavLink("/roles", "Roles", true).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `class="nav-link active"`)

	buf.Reset()
	require.NoError(t, NavLink("/roles", "Roles", false).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `class="nav-link"`)
}

func TestLinkRejectsScriptURLs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Link("javascript:alert(1)", "x").Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "javascript:")
	assert.Contains(t, buf.String(), `href="`+string(templ.FailedSanitizationURL)+`"`)
}
