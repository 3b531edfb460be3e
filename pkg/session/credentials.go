package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

// PermissionAll grants every permission.
const PermissionAll = "*:*:*"

// RoleAdmin holds every permission.
const RoleAdmin = "admin"

// Credentials is a typed view of one browser session's record.
//
// Reads go through a cached copy of the record; every write saves the full
// record back to the store and extends its expiry.
type Credentials struct {
	store Store
	id    string
	ttl   time.Duration

	mu     sync.Mutex
	cached Record
}

// NewCredentials binds sessionID in store. Writes keep the session alive
// for ttl.
func NewCredentials(store Store, sessionID string, ttl time.Duration) *Credentials {
	return &Credentials{store: store, id: sessionID, ttl: ttl}
}

// SessionID returns the bound session id.
func (c *Credentials) SessionID() string { return c.id }

func (c *Credentials) load(ctx context.Context) (Record, error) {
	if c.cached != nil {
		return c.cached, nil
	}
	data, err := c.store.Load(ctx, c.id)
	if err != nil {
		return nil, err
	}
	r, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	c.cached = r
	return r, nil
}

func (c *Credentials) get(ctx context.Context, key string, v any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	return r.Get(key, v)
}

func (c *Credentials) set(ctx context.Context, key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, err := c.load(ctx)
	if err != nil {
		return err
	}
	next := make(Record, len(r)+1)
	for k, raw := range r {
		next[k] = raw
	}
	if err := next.Set(key, v); err != nil {
		return err
	}
	data, err := next.Encode()
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, c.id, data, time.Now().Add(c.ttl)); err != nil {
		return err
	}
	c.cached = next
	return nil
}

// Token returns the bearer token, "" when signed out.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	var tok string
	_, err := c.get(ctx, KeyToken, &tok)
	return tok, err
}

// SetToken stores the bearer token.
func (c *Credentials) SetToken(ctx context.Context, token string) error {
	return c.set(ctx, KeyToken, token)
}

// Profile returns the signed-in user, nil when unknown.
func (c *Credentials) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	ok, err := c.get(ctx, KeyUser, &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

// SetProfile stores the signed-in user.
func (c *Credentials) SetProfile(ctx context.Context, p *Profile) error {
	return c.set(ctx, KeyUser, p)
}

// Roles returns the user's role codes.
func (c *Credentials) Roles(ctx context.Context) ([]string, error) {
	var roles []string
	_, err := c.get(ctx, KeyRoles, &roles)
	return roles, err
}

// SetRoles stores the user's role codes.
func (c *Credentials) SetRoles(ctx context.Context, roles []string) error {
	return c.set(ctx, KeyRoles, roles)
}

// Menus returns the user's menu tree.
func (c *Credentials) Menus(ctx context.Context) ([]Menu, error) {
	var menus []Menu
	_, err := c.get(ctx, KeyMenus, &menus)
	return menus, err
}

// SetMenus stores the user's menu tree.
func (c *Credentials) SetMenus(ctx context.Context, menus []Menu) error {
	return c.set(ctx, KeyMenus, menus)
}

// SignedIn reports whether a token is stored. Store errors count as
// signed out.
func (c *Credentials) SignedIn(ctx context.Context) bool {
	tok, err := c.Token(ctx)
	return err == nil && tok != ""
}

// HasRole reports whether the user holds role. Store errors deny.
func (c *Credentials) HasRole(ctx context.Context, role string) bool {
	roles, err := c.Roles(ctx)
	if err != nil {
		return false
	}
	return slices.Contains(roles, role)
}

// HasPermission reports whether the user may perform perm. Admins and
// holders of PermissionAll may do anything; otherwise the permission must
// be granted on the profile or attached to a visible menu entry. Store
// errors deny.
func (c *Credentials) HasPermission(ctx context.Context, perm string) bool {
	if perm == "" {
		return true
	}
	if c.HasRole(ctx, RoleAdmin) {
		return true
	}
	p, err := c.Profile(ctx)
	if err != nil {
		return false
	}
	if p != nil && (slices.Contains(p.Permissions, PermissionAll) || slices.Contains(p.Permissions, perm)) {
		return true
	}
	menus, err := c.Menus(ctx)
	if err != nil {
		return false
	}
	for _, m := range Flatten(menus) {
		if m.Permission == perm {
			return true
		}
	}
	return false
}

// Clear signs the session out by removing every stored value.
func (c *Credentials) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, c.id); err != nil {
		return err
	}
	c.cached = Record{}
	return nil
}

// Touch extends the session's expiry.
func (c *Credentials) Touch(ctx context.Context) error {
	return c.store.Touch(ctx, c.id, time.Now().Add(c.ttl))
}

// Refresh drops the cached record so the next read hits the store.
func (c *Credentials) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}
