package shared

import "github.com/google/uuid"

// ActorRole is the role of the person performing an operation
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleStaff    ActorRole = "staff"
	RoleAdmin    ActorRole = "admin"
)

// IsStaff returns true for back-office roles
func (r ActorRole) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Actor identifies who is performing an operation. Every state-changing
// operation takes one explicitly; there is no ambient current-user.
type Actor struct {
	ID   uuid.UUID
	Role ActorRole
}

// NewActor creates an actor
func NewActor(id uuid.UUID, role ActorRole) Actor {
	return Actor{ID: id, Role: role}
}
