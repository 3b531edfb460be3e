package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vango-admin/pkg/session"
)

type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func TestResourceCRUD(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/users":
			_, _ = io.WriteString(w, `{"code":0,"data":{"records":[{"id":1,"username":"alice"}],"total":1,"current":1,"size":10}}`)
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"code":0,"data":{"id":2,"username":"bob"}}`)
		case r.Method == http.MethodPost, r.Method == http.MethodPut:
			_, _ = io.WriteString(w, `{"code":0,"data":{"id":3,"username":"carol"}}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/users/batch":
			var body struct {
				IDs []string `json:"ids"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, []string{"4", "5"}, body.IDs)
			_, _ = io.WriteString(w, `{"code":0}`)
		default:
			_, _ = io.WriteString(w, `{"code":0}`)
		}
	})
	users := NewResource[user](c, "users/")
	ctx := context.Background()

	page, err := users.List(ctx, ListParams{Page: 1, Size: 10, Keyword: "al"})
	require.NoError(t, err)
	assert.Equal(t, []user{{ID: 1, Username: "alice"}}, page.Records)

	u, err := users.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	u, err = users.Create(ctx, user{Username: "carol"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)

	_, err = users.Update(ctx, "3", user{Username: "carol"})
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, "a/b"))
	require.NoError(t, users.DeleteBatch(ctx, []string{"4", "5"}))
	require.NoError(t, users.DeleteBatch(ctx, nil))

	assert.Equal(t, []string{
		"GET /api/users?current=1&keyword=al&size=10",
		"GET /api/users/2",
		"POST /api/users",
		"PUT /api/users/3",
		"DELETE /api/users/a%2Fb",
		"DELETE /api/users/batch",
	}, calls)
}

func TestResourceZeroBasedPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("pageNum"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"list":[],"total":40,"pageNum":2}}`)
	}, WithPageParams(PageParams{Current: "pageNum", Size: "pageSize", ZeroBased: true}))

	page, err := NewResource[user](c, "/reports").List(context.Background(), ListParams{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Current)
	assert.Equal(t, 40, page.Total)
}

func TestLoginWithEmbeddedUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		_, _ = io.WriteString(w, `{"code":200,"data":{
			"token":"tok-1",
			"user":{"id":9,"username":"root","nickname":"Root"},
			"roles":[{"code":"admin"},"ops"],
			"permissions":["user:list"],
			"menus":[{"id":1,"name":"Users","path":"/users","permission":"user:list"}]
		}}`)
	})

	id, err := NewAuth(c).Login(context.Background(), LoginRequest{Username: "root", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", id.Token)
	assert.Equal(t, "Root", id.Profile.DisplayName())
	assert.Equal(t, []string{"admin", "ops"}, id.Roles)
	assert.Equal(t, []string{"user:list"}, id.Profile.Permissions)
	require.Len(t, id.Menus, 1)
	assert.Equal(t, "/users", id.Menus[0].Path)
}

func TestLoginFetchesProfileWithNewToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = io.WriteString(w, `{"success":true,"data":"tok-2"}`)
		case "/api/auth/profile":
			if r.Header.Get("Authorization") != "Bearer tok-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"success":true,"data":{"id":4,"username":"ann","roles":["editor"]}}`)
		}
	})

	id, err := NewAuth(c).Login(context.Background(), LoginRequest{Username: "ann", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", id.Token)
	assert.Equal(t, int64(4), id.Profile.ID)
	assert.Equal(t, []string{"editor"}, id.Roles)

	store := session.NewMemoryStore()
	defer store.Close()
	creds := session.NewCredentials(store, "sid", time.Hour)
	require.NoError(t, id.Save(context.Background(), creds))
	assert.True(t, creds.HasRole(context.Background(), "editor"))
	tok, _ := creds.Token(context.Background())
	assert.Equal(t, "tok-2", tok)
}

func TestLoginRejectsMissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":0,"data":{}}`)
	})
	_, err := NewAuth(c).Login(context.Background(), LoginRequest{})
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestSessionCredentialsSatisfyClient(t *testing.T) {
	var _ Credentials = (*session.Credentials)(nil)
}
