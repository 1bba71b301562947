package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

func renderError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	NewHTTPErrorHandler(zerolog.Nop(), tokenstore.CookieOptions{})(err, e.NewContext(req, rec))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), 400, "invalid payload"},
		{"api error", fmt.Errorf("wrap: %w", &domain.APIError{Status: 409, Message: "Slot taken"}), 409, "Slot taken"},
		{"login error", &domain.LoginError{Status: 403, Message: "pending", Code: domain.CodeRegistrationPending}, 403, "pending"},
		{"login network", &domain.LoginError{Message: "Unable to reach the server. Please try again."}, 502, "Unable to reach the server. Please try again."},
		{"draft", domain.ErrDraftNotFound, 404, "registration draft not found"},
		{"malformed", fmt.Errorf("decode GET /x: %w", domain.ErrMalformedResponse), 502, "unexpected response from the server"},
		{"unknown", errors.New("boom"), 500, "internal server error"},
	}

	for _, tc := range cases {
		status, body := renderError(t, tc.err)
		if status != tc.status || body["error"] != tc.msg {
			t.Errorf("%s: got %d %v", tc.name, status, body)
		}
	}
}

func TestHTTPErrorHandler_FieldErrors(t *testing.T) {
	status, body := renderError(t, domain.NewValidationError(map[string]string{"confirm_password": "Passwords do not match."}))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	fields, _ := body["errors"].(map[string]any)
	if fields["confirm_password"] != "Passwords do not match." {
		t.Fatalf("expected field errors, got %v", body)
	}
}

func TestHTTPErrorHandler_UnauthorizedExpiresSessionCookies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	NewHTTPErrorHandler(zerolog.Nop(), tokenstore.CookieOptions{Name: "access_token"})(
		&domain.APIError{Status: http.StatusUnauthorized, Message: "expired"}, e.NewContext(req, rec))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	expired := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired[c.Name] = true
		}
	}
	if !expired["access_token"] || !expired[tokenstore.HTTPOnlyCookie] {
		t.Fatalf("expected both session cookies expired, got %v", rec.Result().Cookies())
	}
}

func TestHTTPErrorHandler_OtherErrorsKeepCookies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	NewHTTPErrorHandler(zerolog.Nop(), tokenstore.CookieOptions{})(
		&domain.APIError{Status: http.StatusForbidden, Message: "no"}, e.NewContext(req, rec))

	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Fatalf("403 must not touch cookies, got %v", cookies)
	}
}
