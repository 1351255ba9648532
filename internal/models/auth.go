package models

import "time"

// Roles recognized by the inventory platform.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleCashier = "cashier"
)

// UserContext identifies the authenticated caller of a request.
type UserContext struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"userRole"`
}

// HasRole reports whether the user's role is in the allowed set.
func (u *UserContext) HasRole(allowed ...string) bool {
	for _, role := range allowed {
		if u.Role == role {
			return true
		}
	}
	return false
}

// ServiceAPIKey is a machine credential for service-to-service calls. The
// secret is stored only as a bcrypt hash.
type ServiceAPIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SecretHash string     `json:"-"`
	Role       string     `json:"role"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
