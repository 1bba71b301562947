// Package authz holds the role rules shared by the edge guard and the
// in-process session guard.
package authz

import (
	"strings"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

// IsAuthorized reports whether a user with role may access a resource that
// requires required. Admin is a superset of assistant; every other required
// role demands an exact match.
func IsAuthorized(role, required string) bool {
	role = domain.NormalizeRole(role)
	required = domain.NormalizeRole(required)
	if role == "" || required == "" {
		return false
	}
	if required == domain.RoleAssistant {
		return role == domain.RoleAssistant || role == domain.RoleAdmin
	}
	return role == required
}

// RoleFromClaims extracts a normalized role from token claims. It checks
// "role", then "type", then a boolean "is_admin". An empty string means no
// role could be determined.
func RoleFromClaims(claims map[string]any) string {
	for _, key := range []string{"role", "type"} {
		if s, ok := claims[key].(string); ok && strings.TrimSpace(s) != "" {
			return domain.NormalizeRole(s)
		}
	}
	if isAdmin, ok := claims["is_admin"].(bool); ok {
		if isAdmin {
			return domain.RoleAdmin
		}
		return domain.RoleAssistant
	}
	return ""
}

// rule binds a path prefix to the role it requires.
type rule struct {
	prefix string
	role   string
}

var rules = []rule{
	{"/admin", domain.RoleAdmin},
	{"/assist", domain.RoleAssistant},
	{"/student", domain.RoleAssistant},
}

// RequiredRole returns the role a page path requires, or false when the path
// is not role-gated.
func RequiredRole(path string) (string, bool) {
	for _, r := range rules {
		if path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r.role, true
		}
	}
	return "", false
}
