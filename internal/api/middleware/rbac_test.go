package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRequireRole(t *testing.T, role, required string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(ContextRole, role)
	}

	called := false
	handler := RequireRole(required)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, called
}

func TestRequireRole_AdminSatisfiesAssistant(t *testing.T) {
	rec, called := runRequireRole(t, "admin", "assistant")
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass, got %d", rec.Code)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	rec, called := runRequireRole(t, "assistant", "admin")
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_MissingRole(t *testing.T) {
	rec, called := runRequireRole(t, "", "assistant")
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
