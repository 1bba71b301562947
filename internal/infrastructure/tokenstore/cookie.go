package tokenstore

import (
	"net/http"
	"strings"
	"time"
)

// HTTPOnlyCookie is the server-only twin of the readable session cookie.
const HTTPOnlyCookie = "auth_token"

// CookieOptions configures the session cookies written by the gateway.
type CookieOptions struct {
	Name   string
	Secure bool
}

// SetSessionCookies writes the readable bearer cookie and its HttpOnly twin
// with a 7-day lifetime.
func SetSessionCookies(w http.ResponseWriter, opts CookieOptions, token string) {
	maxAge := int(TokenTTL / time.Second)
	for _, c := range sessionCookies(opts, token, maxAge) {
		http.SetCookie(w, c)
	}
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, c := range sessionCookies(opts, "", -1) {
		http.SetCookie(w, c)
	}
}

func sessionCookies(opts CookieOptions, value string, maxAge int) []*http.Cookie {
	name := opts.Name
	if name == "" {
		name = CanonicalKey
	}
	readable := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	httpOnly := *readable
	httpOnly.Name = HTTPOnlyCookie
	httpOnly.HttpOnly = true
	if name == HTTPOnlyCookie {
		return []*http.Cookie{&httpOnly}
	}
	return []*http.Cookie{readable, &httpOnly}
}

// TokenFromRequest reads the bearer token from the named cookie, the
// HttpOnly cookie, then the Authorization header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	names := []string{cookieName, HTTPOnlyCookie}
	for _, n := range names {
		if n == "" {
			continue
		}
		if c, err := r.Cookie(n); err == nil && c.Value != "" {
			return c.Value
		}
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
