package access

import (
	"fmt"
	"strings"
)

const (
	ActionAccess = "access"
	ActionView   = "view"
)

// Key identifies a module and an action, e.g. invoices.delete or dashboard.access.
type Key struct {
	Module string
	Action string
}

// NewKey builds a Key without validation.
func NewKey(module, action string) Key {
	return Key{Module: module, Action: action}
}

// ParseKey splits a dotted permission key at its last dot.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	module := s[:i]
	for _, part := range strings.Split(module, ".") {
		if strings.TrimSpace(part) == "" {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
		}
	}
	return Key{Module: module, Action: s[i+1:]}, nil
}

// MustParseKey is ParseKey for compile-time constants.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// MenuKey is the gate for a top-level menu entry.
func MenuKey(menu string) Key {
	return Key{Module: menu, Action: ActionAccess}
}

// SubMenuKey is the gate for an entry nested under menu.
func SubMenuKey(menu, sub string) Key {
	return Key{Module: menu + "." + sub, Action: ActionAccess}
}

func (k Key) String() string {
	return k.Module + "." + k.Action
}

func (k Key) IsZero() bool {
	return k.Module == "" && k.Action == ""
}

func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// RoleKey addresses a permission for one role.
type RoleKey struct {
	Role Role
	Key  Key
}

// PlanRoleKey addresses a plan preset entry.
type PlanRoleKey struct {
	Plan string
	Role Role
	Key  Key
}
