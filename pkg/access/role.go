package access

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRole = errors.New("unknown role")
	ErrInvalidKey  = errors.New("invalid permission key")
)

// Role is one of the fixed organizational roles.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleEmployee Role = "employee"
)

var roleLevels = map[Role]int{
	RoleOwner:    5,
	RoleAdmin:    4,
	RoleManager:  3,
	RoleStaff:    2,
	RoleEmployee: 1,
}

// Roles lists every role from the highest level to the lowest.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager, RoleStaff, RoleEmployee}
}

// TopRole is the highest ranked role.
func TopRole() Role {
	return RoleOwner
}

// Level returns the hierarchy level of a role, 0 when the role is unknown.
func Level(r Role) int {
	return roleLevels[r]
}

// IsValid reports whether r is one of the fixed roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Outranks reports whether r sits strictly above other in the hierarchy.
func (r Role) Outranks(other Role) bool {
	return Level(r) > Level(other)
}

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// LowerRoles returns the roles ranked strictly below r, highest first.
func LowerRoles(r Role) []Role {
	var out []Role
	for _, candidate := range Roles() {
		if r.Outranks(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}
