package domain

// Role is the capability a caller acts with.
type Role string

// List of roles
const (
	RoleClient  Role = "CLIENT"
	RoleCourier Role = "COURIER"
	RoleAdmin   Role = "ADMIN"
	RoleSystem  Role = "SYSTEM"
)

// Valid checks if the Role is known
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleCourier, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor identifies who calls the core and with which capability.
type Actor struct {
	ID   string
	Role Role
}

// Privileged reports whether the actor may bypass ownership checks.
func (a Actor) Privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// SystemActor is used for updates produced by the platform itself.
func SystemActor(id string) Actor {
	return Actor{ID: id, Role: RoleSystem}
}
