package domain

// Role names carried on identities, events and JWT claims.
const (
	RoleArtist  = "artist"
	RolePlanner = "planner"
)

// ValidRole reports whether r is a role that may own events.
func ValidRole(r string) bool {
	return r == RoleArtist || r == RolePlanner
}
