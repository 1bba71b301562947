package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error       string            `json:"error"`
	Code        string            `json:"code,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	RequestedAt string            `json:"requested_at,omitempty"`
	ReviewedAt  string            `json:"reviewed_at,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps backend, validation and domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
//
// A 401 also expires the session cookies so the browser stops replaying a
// token the backend has rejected.
func NewHTTPErrorHandler(log zerolog.Logger, cookies tokenstore.CookieOptions) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if code == http.StatusUnauthorized {
			tokenstore.ClearSessionCookies(c.Response(), cookies)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var le *domain.LoginError
	if errors.As(err, &le) {
		status := le.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		return status, errorResponse{Error: le.Message, Code: le.Code, RequestedAt: le.RequestedAt, ReviewedAt: le.ReviewedAt}
	}

	// Backend and validation failures keep their status and message.
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= http.StatusInternalServerError {
			log.Warn().Err(err).Str("path", c.Path()).Msg("backend failure")
		}
		return apiErr.Status, errorResponse{Error: apiErr.Message, Code: apiErr.Code, Errors: apiErr.FieldErrors}
	}

	switch {
	case errors.Is(err, domain.ErrDraftNotFound):
		return http.StatusNotFound, errorResponse{Error: "registration draft not found"}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorResponse{Error: domain.DefaultMessage(http.StatusUnauthorized)}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrMalformedResponse):
		log.Warn().Err(err).Str("path", c.Path()).Msg("malformed backend response")
		return http.StatusBadGateway, errorResponse{Error: "unexpected response from the server"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
