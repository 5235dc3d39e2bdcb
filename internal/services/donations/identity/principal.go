// Package identity resolves the caller of a request into a Principal.
package identity

import "strings"

// Role is the authorization role carried by a principal.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// ParseRole returns the role named by value.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleGuest:
		return RoleGuest, true
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Principal is the resolved caller identity for one request.
type Principal struct {
	SubjectID string
	Role      Role
	Email     string
}

// Anonymous returns the guest principal.
func Anonymous() Principal {
	return Principal{Role: RoleGuest}
}

// Authenticated reports whether the principal carries a subject.
func (p Principal) Authenticated() bool {
	return p.SubjectID != "" && p.Role != RoleGuest && p.Role != ""
}
