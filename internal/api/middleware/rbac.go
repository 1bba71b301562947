package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpdesk-roster/rosterweb/internal/core/authz"
)

// RequireRole rejects requests whose guard-assigned role does not satisfy
// required. It answers JSON instead of redirecting, so it suits API routes
// the edge guard lets through, such as paths with a file extension.
func RequireRole(required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			if !authz.IsAuthorized(role, required) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
