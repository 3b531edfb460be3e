// Package session persists per-browser console state: the bearer token,
// the signed-in user's profile, role list and menu tree.
//
// Values live under fixed keys (KeyToken, KeyUser, KeyRoles, KeyMenus) in
// one Record per browser session. Records are kept in a Store:
//
//	store := session.NewMemoryStore()
//	// or, shared across console replicas
//	store := session.NewRedisStore(redis.NewClient(opts))
//
// Credentials wraps a store and a session id with typed accessors:
//
//	creds := session.NewCredentials(store, sessionID, 12*time.Hour)
//	if err := creds.SetToken(ctx, token); err != nil { ... }
//	ok := creds.HasPermission(ctx, "user:delete")
package session
