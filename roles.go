package examauth

import "math"

// Role is the user's role
type Role = string

const (
	// RoleGuest is the ephemeral, credential-less tier.
	RoleGuest Role = "guest"
	// RoleRegular is a registered user.
	RoleRegular Role = "regular"
	// RoleAdmin has access to administrative features.
	RoleAdmin Role = "admin"
)

// roleHierarchy is the fixed linear ranking used for minimal-role lookups.
// Comparison goes through this table, never through enum arithmetic.
var roleHierarchy = map[Role]int{
	RoleGuest:   0,
	RoleRegular: 1,
	RoleAdmin:   2,
}

// RoleRank returns the hierarchy position of a role. Unknown roles rank at
// +Inf equivalent so they never win a minimum comparison.
func RoleRank(r Role) int {
	if rank, ok := roleHierarchy[r]; ok {
		return rank
	}
	return math.MaxInt
}

// IsValidRole checks the role against the predefined tiers.
func IsValidRole(r Role) bool {
	_, ok := roleHierarchy[r]
	return ok
}

// RoleAtLeast reports whether role r sits at or above min in the hierarchy.
// Unknown roles never satisfy any minimum.
func RoleAtLeast(r, min Role) bool {
	rank, ok := roleHierarchy[r]
	if !ok {
		return false
	}
	minRank, ok := roleHierarchy[min]
	if !ok {
		return false
	}
	return rank >= minRank
}

// AllRoles returns the predefined roles in hierarchical order.
func AllRoles() []Role {
	return []Role{RoleGuest, RoleRegular, RoleAdmin}
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	return Role(s), IsValidRole(Role(s))
}
