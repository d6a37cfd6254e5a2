package access

import (
	"errors"
	"fmt"
)

var ErrHierarchyViolation = errors.New("hierarchy violation")

// CriticalModules can never lose their view action on the top role.
var CriticalModules = []string{"dashboard", "settings", "billing", "team"}

// GuardDecision is the answer to a proposed toggle.
type GuardDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Err returns nil when allowed, otherwise an ErrHierarchyViolation carrying the reason.
func (d GuardDecision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrHierarchyViolation, d.Reason)
}

// Guard keeps every role's capability set a superset of the roles below it.
type Guard struct {
	critical map[string]struct{}
}

func NewGuard() *Guard {
	return NewGuardWithCritical(CriticalModules)
}

func NewGuardWithCritical(modules []string) *Guard {
	g := &Guard{critical: make(map[string]struct{}, len(modules))}
	for _, m := range modules {
		g.critical[m] = struct{}{}
	}
	return g
}

// IsProtected reports whether disabling key for role is forbidden outright.
func (g *Guard) IsProtected(role Role, key Key) bool {
	if role != TopRole() || key.Action != ActionView {
		return false
	}
	_, ok := g.critical[key.Module]
	return ok
}

// CanEnable always allows; granting more to a role never shrinks a superset.
func (g *Guard) CanEnable(Role, Key) GuardDecision {
	return GuardDecision{Allowed: true}
}

// CanDisable checks a proposed disable of key for role against state. A lower
// role holding the key is reported ahead of the protected-permission rule.
func (g *Guard) CanDisable(role Role, key Key, state map[RoleKey]bool) GuardDecision {
	for _, lower := range LowerRoles(role) {
		if state[RoleKey{Role: lower, Key: key}] {
			return GuardDecision{
				Reason: fmt.Sprintf("cannot disable %s for %s (level %d): %s (level %d) still has it enabled",
					key, role, Level(role), lower, Level(lower)),
			}
		}
	}
	if g.IsProtected(role, key) {
		return GuardDecision{
			Reason: fmt.Sprintf("%s is a protected permission for %s and cannot be disabled", key, role),
		}
	}
	return GuardDecision{Allowed: true}
}

// Check dispatches to CanEnable or CanDisable.
func (g *Guard) Check(role Role, key Key, enabled bool, state map[RoleKey]bool) GuardDecision {
	if enabled {
		return g.CanEnable(role, key)
	}
	return g.CanDisable(role, key, state)
}
