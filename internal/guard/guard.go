// Package guard decides whether a page renders or redirects based on the
// session state and the role the page requires. It is a pure function over
// its inputs: no network, no suspension.
package guard

import "tradesense-go/internal/models"

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	// Grant renders the requested page.
	Grant Decision = iota
	// RedirectLogin sends the visitor to the regular login surface.
	RedirectLogin
	// RedirectAdminLogin sends the visitor to the admin login surface.
	RedirectAdminLogin
	// RedirectDashboard sends an authenticated but under-privileged user
	// back to their own dashboard.
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Grant:
		return "grant"
	case RedirectLogin:
		return "redirect-login"
	case RedirectAdminLogin:
		return "redirect-admin-login"
	case RedirectDashboard:
		return "redirect-dashboard"
	}
	return "unknown"
}

// Evaluate returns the decision for a page requiring requiredRole ("" means
// public). Access to a protected page is granted iff the user's role equals
// the required role or the user is superadmin; superadmin is a strict
// superset of admin.
func Evaluate(isAuthenticated bool, role, requiredRole string) Decision {
	if requiredRole == "" {
		return Grant
	}

	if !isAuthenticated {
		// Privileged pages have their own login surface.
		if requiredRole == models.RoleAdmin || requiredRole == models.RoleSuperadmin {
			return RedirectAdminLogin
		}
		return RedirectLogin
	}

	if role == requiredRole || role == models.RoleSuperadmin {
		return Grant
	}

	return RedirectDashboard
}
