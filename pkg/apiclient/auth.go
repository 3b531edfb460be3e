package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/vango-dev/vango-admin/pkg/session"
)

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Captcha  string `json:"captcha,omitempty"`
}

// Identity is everything the console keeps about a signed-in user.
type Identity struct {
	Token   string
	Profile *session.Profile
	Roles   []string
	Menus   []session.Menu
}

// Save writes the identity under the session's fixed keys.
func (id *Identity) Save(ctx context.Context, creds *session.Credentials) error {
	if err := creds.SetToken(ctx, id.Token); err != nil {
		return err
	}
	if err := creds.SetProfile(ctx, id.Profile); err != nil {
		return err
	}
	if err := creds.SetRoles(ctx, id.Roles); err != nil {
		return err
	}
	return creds.SetMenus(ctx, id.Menus)
}

// Auth wraps the /auth endpoints.
type Auth struct {
	client *Client
}

// NewAuth creates an Auth on c.
func NewAuth(c *Client) *Auth {
	return &Auth{client: c}
}

// Login signs in. The token may come back bare or inside an object that
// also carries the user; a missing user is fetched from the profile
// endpoint with the new token.
func (a *Auth) Login(ctx context.Context, req LoginRequest) (*Identity, error) {
	data, err := a.client.Do(ctx, http.MethodPost, "/auth/login", nil, req)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(data)
	var token string
	switch {
	case root.Type == gjson.String:
		token = root.String()
	case root.IsObject():
		token = firstOf(root, []string{"token", "accessToken", "access_token"}).String()
	}
	if token == "" {
		return nil, &Error{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusOK, Message: "login response carried no token", Err: ErrBadEnvelope}
	}

	if root.IsObject() && firstOf(root, []string{"user", "userInfo"}).Exists() {
		id, err := parseIdentity(data)
		if err != nil {
			return nil, err
		}
		id.Token = token
		return id, nil
	}

	authed := a.client.With(WithCredentials(staticToken(token)))
	id, err := NewAuth(authed).Profile(ctx)
	if err != nil {
		return nil, err
	}
	id.Token = token
	return id, nil
}

// Profile fetches the current user with roles and menus.
func (a *Auth) Profile(ctx context.Context) (*Identity, error) {
	data, err := a.client.Do(ctx, http.MethodGet, "/auth/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	return parseIdentity(data)
}

// Logout ends the backend session.
func (a *Auth) Logout(ctx context.Context) error {
	_, err := a.client.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// parseIdentity accepts {user, roles, menus} or a bare user object.
func parseIdentity(data json.RawMessage) (*Identity, error) {
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: profile payload is not an object", ErrBadEnvelope)
	}

	id := &Identity{Profile: &session.Profile{}}
	user := firstOf(root, []string{"user", "userInfo"})
	if !user.Exists() {
		user = root
	}
	if err := json.Unmarshal([]byte(user.Raw), id.Profile); err != nil {
		return nil, fmt.Errorf("%w: user: %v", ErrBadEnvelope, err)
	}

	for _, r := range root.Get("roles").Array() {
		if r.IsObject() {
			id.Roles = append(id.Roles, firstOf(r, []string{"code", "roleKey", "name"}).String())
		} else {
			id.Roles = append(id.Roles, r.String())
		}
	}
	if perms := root.Get("permissions"); perms.IsArray() && len(id.Profile.Permissions) == 0 {
		for _, p := range perms.Array() {
			id.Profile.Permissions = append(id.Profile.Permissions, p.String())
		}
	}
	if menus := root.Get("menus"); menus.IsArray() {
		if err := json.Unmarshal([]byte(menus.Raw), &id.Menus); err != nil {
			return nil, fmt.Errorf("%w: menus: %v", ErrBadEnvelope, err)
		}
	}
	return id, nil
}

type staticToken string

func (t staticToken) Token(context.Context) (string, error) { return string(t), nil }
func (staticToken) Clear(context.Context) error              { return nil }
