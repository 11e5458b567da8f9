// Package model defines data structures for the helpdesk.
package model

// Role is a flat tag consumed by the access policy. Roles carry no
// behavior of their own and form no hierarchy.
type Role string

const (
	RoleManager      Role = "Manager"
	RoleReceptionist Role = "Receptionist"
	RoleCoordinator  Role = "Coordinator"
	RoleSalesRep     Role = "Sales Rep"
)

// User is an authenticated desk actor. DepartmentID is empty only for
// desk-wide roles in practice (the seeded Manager has none).
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	Avatar       string `json:"avatar,omitempty"`

	// PasswordHash never leaves the server.
	PasswordHash string `json:"-"`
}

// LoginRequest is the credential payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the authenticated user and a bearer token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
