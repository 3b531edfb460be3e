package session

import (
	"encoding/json"
	"fmt"
)

// Fixed keys of a session record.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyRoles = "roles"
	KeyMenus = "menus"
)

// Profile is the signed-in user as reported by the backend.
type Profile struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Nickname    string   `json:"nickname,omitempty"`
	Email       string   `json:"email,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// DisplayName prefers the nickname.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Username
}

// Menu is one node of the navigation menu tree.
type Menu struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Permission string `json:"permission,omitempty"`
	Hidden     bool   `json:"hidden,omitempty"`
	Children   []Menu `json:"children,omitempty"`
}

// Flatten returns the menus depth-first, parents before children.
func Flatten(menus []Menu) []Menu {
	var out []Menu
	var walk func([]Menu)
	walk = func(ms []Menu) {
		for _, m := range ms {
			out = append(out, m)
			walk(m.Children)
		}
	}
	walk(menus)
	return out
}

// Record is the stored form of a session: raw JSON values under the fixed
// keys. Unknown keys are preserved.
type Record map[string]json.RawMessage

// DecodeRecord parses stored bytes. Empty input yields an empty record.
func DecodeRecord(data []byte) (Record, error) {
	r := Record{}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	return r, nil
}

// Encode serializes the record.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Get decodes the value under key into v. It reports false when the key is
// absent.
func (r Record) Get(key string, v any) (bool, error) {
	raw, ok := r[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("session: decode %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v under key.
func (r Record) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}
	r[key] = raw
	return nil
}
