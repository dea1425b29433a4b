package catalog

import "strings"

// Role identifies the actor that owns a step.
type Role string

const (
	RoleClient   Role = "client"
	RoleOperator Role = "operator"
)

var allRoles = []Role{RoleClient, RoleOperator}

// AllRoles returns the known roles in display order.
func AllRoles() []Role {
	cp := make([]Role, len(allRoles))
	copy(cp, allRoles)
	return cp
}

// ParseRole converts a string into a known Role.
func ParseRole(value string) (Role, bool) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RoleClient, RoleOperator:
		return normalized, true
	default:
		return "", false
	}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}
