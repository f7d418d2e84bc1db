package models

// Roles a user account can hold. Superadmin is a strict superset of admin.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User is the authenticated account as returned by the backend.
// It is a client-side cache only; the backend owns the record.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Language  string `json:"language"`
	DarkMode  bool   `json:"dark_mode"`
	CreatedAt string `json:"created_at,omitempty"`
}

// IsAdmin reports whether the user may access admin surfaces.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperadmin
}
