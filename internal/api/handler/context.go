package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpdesk-roster/rosterweb/internal/api/middleware"
)

// ctxRole returns the role the edge guard assigned. Its absence means the
// guard did not run for this route.
func ctxRole(c echo.Context) (string, error) {
	role, _ := c.Get(middleware.ContextRole).(string)
	if role == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return role, nil
}

// bindValid binds the request body into v and validates it.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(v)
}
