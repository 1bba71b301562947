package middleware

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/api/metrics"
	"github.com/helpdesk-roster/rosterweb/internal/core/authz"
	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

// Keys the guard sets on the echo context.
const (
	ContextToken  = "token"
	ContextRole   = "role"
	ContextUserID = "user_id"
)

// GuardConfig configures the edge guard.
type GuardConfig struct {
	Verifier         Verifier
	CookieName       string
	LoginPath        string
	UnauthorizedPath string
	// Mock assigns DevRole to every request without looking at tokens.
	Mock    bool
	DevRole string
	Log     zerolog.Logger
}

var staticPrefixes = []string{"/static/", "/_next/", "/assets/", "/favicon.ico"}

// staticExts are the asset types served next to the pages. Other dotted
// paths (user names, report ids) are still guarded.
var staticExts = map[string]bool{
	".js": true, ".mjs": true, ".css": true, ".map": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".ico": true, ".webp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".txt": true, ".webmanifest": true,
}

// Guard redirects requests for role-gated pages before any handler runs. A
// missing or unverifiable token goes to the login page; a valid token with
// the wrong role goes to the unauthorized page.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth/login"
	}
	if cfg.UnauthorizedPath == "" {
		cfg.UnauthorizedPath = "/unauthorized"
	}
	devRole := domain.NormalizeRole(cfg.DevRole)
	if devRole == "" {
		devRole = domain.RoleAdmin
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			p := req.URL.Path
			if isStatic(p) {
				return next(c)
			}
			required, gated := authz.RequiredRole(p)
			if !gated {
				return next(c)
			}

			if cfg.Mock {
				if !authz.IsAuthorized(devRole, required) {
					return redirectUnauthorized(c, cfg.UnauthorizedPath, required)
				}
				c.Set(ContextRole, devRole)
				return allow(c, next, required)
			}

			tok := tokenstore.TokenFromRequest(req, cfg.CookieName)
			if tok == "" {
				return redirectLogin(c, cfg.LoginPath, required)
			}

			claims, err := cfg.Verifier.Verify(req.Context(), tok)
			if err != nil {
				cfg.Log.Debug().Err(err).Str("path", p).Msg("guard rejected token")
				return redirectLogin(c, cfg.LoginPath, required)
			}

			role := authz.RoleFromClaims(claims)
			if !authz.IsAuthorized(role, required) {
				return redirectUnauthorized(c, cfg.UnauthorizedPath, required)
			}

			sub, _ := claims.GetSubject()
			c.Set(ContextToken, tok)
			c.Set(ContextRole, role)
			c.Set(ContextUserID, sub)
			c.SetRequest(req.WithContext(tokenstore.WithToken(req.Context(), tok)))
			return allow(c, next, required)
		}
	}
}

func allow(c echo.Context, next echo.HandlerFunc, required string) error {
	metrics.GuardDecisionsTotal.WithLabelValues("allow", required).Inc()
	return next(c)
}

func redirectUnauthorized(c echo.Context, unauthorizedPath, required string) error {
	metrics.GuardDecisionsTotal.WithLabelValues("unauthorized", required).Inc()
	return c.Redirect(http.StatusTemporaryRedirect, unauthorizedPath)
}

func redirectLogin(c echo.Context, loginPath, required string) error {
	metrics.GuardDecisionsTotal.WithLabelValues("login", required).Inc()
	target := loginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

// isStatic reports whether p is an asset path the guard never inspects.
func isStatic(p string) bool {
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return staticExts[strings.ToLower(path.Ext(p))]
}

// ForwardToken puts the caller's cookie or bearer token on the request
// context so backend calls made on its behalf carry it. Routes behind Guard
// already have it.
func ForwardToken(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if tok := tokenstore.TokenFromRequest(req, cookieName); tok != "" {
				c.SetRequest(req.WithContext(tokenstore.WithToken(req.Context(), tok)))
			}
			return next(c)
		}
	}
}

// BearerFromCookie copies the session cookie into the Authorization header
// when the request has none. The backend only reads the header.
func BearerFromCookie(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Header.Get(echo.HeaderAuthorization) == "" {
				if tok := tokenstore.TokenFromRequest(req, cookieName); tok != "" {
					req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
				}
			}
			return next(c)
		}
	}
}
