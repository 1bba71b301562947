package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	RoleAdmin     = "admin"
	RoleAssistant = "assistant"
	// RoleStudent is the legacy name for RoleAssistant still issued by older tokens.
	RoleStudent = "student"
)

// User is the normalized view of the authenticated staff member.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

// ProfileUpdate changes the signed-in user's own profile. Empty fields are
// left unchanged.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"    validate:"omitempty,email"`
	Username string `json:"username,omitempty"`
}

// NormalizeRole maps legacy and mixed-case role names onto the canonical set.
// Unknown values are returned lowercased and trimmed.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == RoleStudent {
		return RoleAssistant
	}
	return r
}

// NormalizeUser builds a User from a server profile object. The role is
// resolved in order: a recognised "role" string, then the "is_admin" flag,
// then RoleAssistant.
func NormalizeUser(profile map[string]any) *User {
	if profile == nil {
		return nil
	}

	u := &User{
		ID:       stringField(profile, "id", "user_id"),
		Email:    stringField(profile, "email"),
		Username: stringField(profile, "username"),
		Name:     stringField(profile, "name", "full_name"),
		Role:     RoleAssistant,
	}

	switch role := NormalizeRole(stringField(profile, "role")); role {
	case RoleAdmin, RoleAssistant:
		u.Role = role
	default:
		if isAdmin, ok := profile["is_admin"].(bool); ok && isAdmin {
			u.Role = RoleAdmin
		}
	}
	return u
}

// stringField returns the first key present in m rendered as a string.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}
