package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

type captured struct {
	method      string
	path        string
	query       string
	auth        string
	contentType string
	body        string
}

// newTestServer replies with status/contentType/body and records the request.
func newTestServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = captured{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(b),
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newClient(srv *httptest.Server, tokens ports.TokenSource) *Client {
	return New(Config{BaseURL: srv.URL + "/api/v2"}, tokens, zerolog.Nop())
}

func TestDo_ReturnsEnvelopeData(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{"success":true,"data":{"id":7}}`)
	c := newClient(srv, tokenstore.Static("tok"))

	env, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodGet, Path: "/me", Query: map[string]string{"full": "1", "skip": ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out struct{ ID int }
	if err := env.Decode(&out); err != nil || out.ID != 7 {
		t.Fatalf("unexpected data: %s (%v)", env.Data, err)
	}
	if got.path != "/api/v2/me" || got.query != "full=1" {
		t.Errorf("unexpected target: %s?%s", got.path, got.query)
	}
	if got.auth != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", got.auth)
	}
	if got.contentType != "" {
		t.Errorf("GET without body must not set content type, got %q", got.contentType)
	}
}

func TestDo_RawBodyWithoutEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "application/json; charset=utf-8", `[{"code":"CS101"}]`)
	c := newClient(srv, nil)

	env, err := c.Do(context.Background(), ports.APIRequest{Path: "courses"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(env.Data) != `[{"code":"CS101"}]` {
		t.Fatalf("expected raw body as data, got %s", env.Data)
	}
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{}`)
	c := newClient(srv, tokenstore.Static(""))

	if _, err := c.Do(context.Background(), ports.APIRequest{Path: "/courses"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.auth != "" {
		t.Fatalf("expected no Authorization header, got %q", got.auth)
	}
}

func TestDo_JSONBodyGetsContentType(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{"success":true}`)
	c := newClient(srv, nil)

	_, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodPost, Path: "/auth/login", Body: map[string]string{"username": "a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", got.contentType)
	}
	if got.body != `{"username":"a"}` {
		t.Errorf("unexpected body %q", got.body)
	}
}

func TestDo_MultipartKeepsBoundary(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{"success":true}`)
	c := newClient(srv, nil)

	ct := "multipart/form-data; boundary=xyz"
	_, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodPost, Path: "/upload", Body: strings.NewReader("--xyz--"), ContentType: ct})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.contentType != ct {
		t.Errorf("multipart content type replaced: %q", got.contentType)
	}
}

func TestDo_AbsoluteURLPassesThrough(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{}`)
	c := New(Config{BaseURL: "http://unused.invalid/api"}, nil, zerolog.Nop())

	if _, err := c.Do(context.Background(), ports.APIRequest{Path: srv.URL + "/other"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.path != "/other" {
		t.Fatalf("expected absolute URL untouched, got %s", got.path)
	}
}

func TestDo_NoContent(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNoContent, "", "")
	c := newClient(srv, nil)

	env, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodPost, Path: "/admin/schedule/clear"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.Success || string(env.Data) != `{}` {
		t.Fatalf("expected empty success, got %+v", env)
	}
}

func TestDo_NonJSONBodyIsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "text/html", "<html></html>")
	c := newClient(srv, nil)

	env, err := c.Do(context.Background(), ports.APIRequest{Path: "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(env.Data) != `{}` {
		t.Fatalf("expected empty object, got %s", env.Data)
	}
}

func TestDo_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{"default 400", 400, `{}`, domain.DefaultMessage(400), ""},
		{"server message", 409, `{"success":false,"message":"Slot already taken"}`, "Slot already taken", ""},
		{"error key", 403, `{"error":"admins only"}`, "admins only", ""},
		{"code", 401, `{"success":false,"code":"REG_PENDING","message":"pending"}`, "pending", "REG_PENDING"},
		{"code in data", 401, `{"success":false,"data":{"error_code":"REG_REJECTED"}}`, domain.DefaultMessage(401), "REG_REJECTED"},
		{"5xx", 503, `{}`, domain.DefaultMessage(503), ""},
		{"success false on 200", 200, `{"success":false,"message":"nope"}`, "nope", ""},
	}

	for _, tc := range cases {
		srv, _ := newTestServer(t, tc.status, "application/json", tc.body)
		c := newClient(srv, nil)

		_, err := c.Do(context.Background(), ports.APIRequest{Path: "/x"})
		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("%s: expected APIError, got %v", tc.name, err)
		}
		if apiErr.Status != tc.status || apiErr.Message != tc.message || apiErr.Code != tc.code {
			t.Errorf("%s: got %+v", tc.name, apiErr)
		}
	}
}

func TestDo_FieldErrors(t *testing.T) {
	srv, _ := newTestServer(t, 422, "application/json", `{"success":false,"errors":{"email":["already registered"]}}`)
	c := newClient(srv, nil)

	_, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodPost, Path: "/auth/register", Body: map[string]string{}})
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.FieldErrors["email"] != "already registered" {
		t.Fatalf("unexpected field errors: %+v", apiErr.FieldErrors)
	}
	if !json.Valid(apiErr.Body) {
		t.Fatalf("expected raw body on error")
	}
}

func TestDo_HTMLErrorPage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, "text/html", "<h1>bad gateway</h1>")
	c := newClient(srv, nil)

	_, err := c.Do(context.Background(), ports.APIRequest{Path: "/x"})
	if !domain.IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}

func TestDo_UnauthorizedRunsHooks(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, "application/json", `{}`)
	c := newClient(srv, tokenstore.Static("expired"))

	calls := 0
	c.OnUnauthorized(func() { calls++ })
	derived := c.WithTokens(tokenstore.Static("other"))

	_, _ = c.Do(context.Background(), ports.APIRequest{Path: "/me"})
	_, _ = derived.Do(context.Background(), ports.APIRequest{Path: "/me"})
	if calls != 2 {
		t.Fatalf("expected hook on each 401, got %d", calls)
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "", "")
	c := newClient(srv, nil)
	srv.Close()

	_, err := c.Do(context.Background(), ports.APIRequest{Path: "/me"})
	var apiErr *domain.APIError
	if err == nil || errors.As(err, &apiErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, "application/pdf", "%PDF-1.7")
	c := newClient(srv, nil)

	body, ct, err := c.Download(context.Background(), ports.APIRequest{Path: "/admin/schedule/export/pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "%PDF-1.7" || ct != "application/pdf" {
		t.Fatalf("unexpected download: %q %q", body, ct)
	}
}

func TestNew_RelativeBaseUsesOrigin(t *testing.T) {
	c := New(Config{BaseURL: "/api/v2/", Origin: "http://backend:5000/"}, nil, zerolog.Nop())
	got, err := c.resolve("me", nil)
	if err != nil || got != "http://backend:5000/api/v2/me" {
		t.Fatalf("unexpected resolution %q (%v)", got, err)
	}
}

func TestDo_RequestTokenOverridesSource(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{}`)
	c := newClient(srv, tokenstore.Static("stored"))

	if _, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodPost, Path: "/auth/logout", Token: "explicit"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.auth != "Bearer explicit" {
		t.Fatalf("expected request token, got %q", got.auth)
	}
}
