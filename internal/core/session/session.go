// Package session holds the authenticated user of one client and the
// login, registration and logout flows that change it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/api/metrics"
	"github.com/helpdesk-roster/rosterweb/internal/core/authz"
	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateBootstrapping State = "bootstrapping"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Decision is the outcome of Authorize.
type Decision int

const (
	// GuardLoading means the session has not resolved yet.
	GuardLoading Decision = iota
	GuardLogin
	GuardUnauthorized
	GuardAllow
)

func (d Decision) String() string {
	switch d {
	case GuardLoading:
		return "loading"
	case GuardLogin:
		return "login"
	case GuardUnauthorized:
		return "unauthorized"
	default:
		return "allow"
	}
}

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	logoutPath   = "/auth/logout"
	mePath       = "/me"
)

// Options configures a Session.
type Options struct {
	// Mock skips the backend entirely and signs in a fixed dev user.
	Mock bool
	// DevRole is the role of the mock user. Defaults to admin.
	DevRole string
}

// Session is safe for concurrent use. The mutex is never held across a
// network call.
type Session struct {
	api    ports.APIClient
	tokens ports.TokenStore
	log    zerolog.Logger
	opts   Options

	mu    sync.RWMutex
	state State
	user  *domain.User
}

// New returns a Session in the bootstrapping state.
func New(api ports.APIClient, tokens ports.TokenStore, log zerolog.Logger, opts Options) *Session {
	if opts.DevRole == "" {
		opts.DevRole = domain.RoleAdmin
	}
	return &Session{
		api:    api,
		tokens: tokens,
		log:    log,
		opts:   opts,
		state:  StateBootstrapping,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current user, or nil when nobody is signed in.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// HasRole reports whether the current user's role equals role.
func (s *Session) HasRole(role string) bool {
	u := s.User()
	return u != nil && u.Role == domain.NormalizeRole(role)
}

// Authorize applies the page-level role rule to the current state.
func (s *Session) Authorize(required string) Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.state == StateBootstrapping:
		return GuardLoading
	case s.user == nil:
		return GuardLogin
	case !authz.IsAuthorized(s.user.Role, required):
		return GuardUnauthorized
	default:
		return GuardAllow
	}
}

// Bootstrap resolves the initial state from the stored token.
func (s *Session) Bootstrap(ctx context.Context) error {
	if s.opts.Mock {
		s.transition(StateAuthenticated, s.devUser())
		return nil
	}

	if _, ok := s.tokens.Token(ctx); !ok {
		s.transition(StateAnonymous, nil)
		return nil
	}

	u, err := s.me(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("session bootstrap failed")
		s.tokens.Clear(ctx)
		s.transition(StateAnonymous, nil)
		return err
	}
	s.transition(StateAuthenticated, u)
	return nil
}

// Login signs in with username and password. Failures are *domain.LoginError.
func (s *Session) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if s.opts.Mock {
		u := s.devUser()
		if username != "" {
			u.Username = username
		}
		s.transition(StateAuthenticated, u)
		return s.User(), nil
	}

	env, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return nil, loginError(err)
	}

	if tok := domain.ExtractToken(env.Raw); tok != "" {
		s.tokens.Store(ctx, tok)
	}

	u := domain.ExtractUser(env.Raw)
	if u == nil {
		if u, err = s.me(ctx); err != nil {
			return nil, loginError(err)
		}
	}
	s.transition(StateAuthenticated, u)
	s.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user logged in")
	return s.User(), nil
}

// Register creates an account and then loads the profile through /me.
func (s *Session) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	if s.opts.Mock {
		u := s.devUser()
		u.Email, u.Name = email, name
		s.transition(StateAuthenticated, u)
		return s.User(), nil
	}

	env, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   registerPath,
		Body:   map[string]string{"email": email, "password": password, "name": name},
	})
	if err != nil {
		return nil, err
	}
	if tok := domain.ExtractToken(env.Raw); tok != "" {
		s.tokens.Store(ctx, tok)
	}

	u, err := s.me(ctx)
	if err != nil {
		s.transition(StateAnonymous, nil)
		return nil, err
	}
	s.transition(StateAuthenticated, u)
	return s.User(), nil
}

// Logout drops the local session before telling the backend. The backend
// call is best effort.
func (s *Session) Logout(ctx context.Context) {
	s.transition(StateAnonymous, nil)
	if s.opts.Mock {
		return
	}

	tok, _ := s.tokens.Token(ctx)
	s.tokens.Clear(ctx)

	// The store is already empty, so the token travels on the request.
	req := ports.APIRequest{Method: http.MethodPost, Path: logoutPath, Token: tok}
	if _, err := s.api.Do(ctx, req); err != nil {
		s.log.Debug().Err(err).Msg("logout notification failed")
	}
}

// HandleUnauthorized reacts to a 401 from any call. It only acts while
// authenticated.
func (s *Session) HandleUnauthorized() {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return
	}
	s.state, s.user = StateAnonymous, nil
	s.mu.Unlock()

	s.tokens.Clear(context.Background())
	metrics.SessionTransitionsTotal.WithLabelValues(string(StateAnonymous)).Inc()
	s.log.Info().Msg("session expired")
}

func (s *Session) me(ctx context.Context) (*domain.User, error) {
	env, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: mePath})
	if err != nil {
		return nil, err
	}
	if u := domain.ExtractUser(env.Raw); u != nil {
		return u, nil
	}
	return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: domain.DefaultMessage(http.StatusUnauthorized)}
}

func (s *Session) devUser() *domain.User {
	return &domain.User{
		ID:       "dev-user",
		Email:    "dev@localhost",
		Username: "dev",
		Name:     "Development User",
		Role:     domain.NormalizeRole(s.opts.DevRole),
	}
}

func (s *Session) transition(state State, u *domain.User) {
	s.mu.Lock()
	s.state, s.user = state, u
	s.mu.Unlock()
	metrics.SessionTransitionsTotal.WithLabelValues(string(state)).Inc()
}

// loginError converts a failed login call into the detail the caller shows.
func loginError(err error) *domain.LoginError {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return &domain.LoginError{
			Message: "Unable to reach the server. Please try again.",
			Err:     err,
		}
	}

	le := &domain.LoginError{
		Message: apiErr.Message,
		Code:    apiErr.Code,
		Status:  apiErr.Status,
		Err:     err,
	}
	if le.Code == "" && apiErr.Status == http.StatusUnauthorized {
		le.Code = domain.CodeInvalidCredentials
		if le.Message == domain.DefaultMessage(http.StatusUnauthorized) {
			le.Message = "Invalid username or password."
		}
	}
	le.RequestedAt = detailField(apiErr.Body, "requested_at")
	le.ReviewedAt = detailField(apiErr.Body, "reviewed_at")
	return le
}

// detailField reads key from the body or its data object.
func detailField(body json.RawMessage, key string) string {
	var root map[string]json.RawMessage
	if json.Unmarshal(body, &root) != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{body, root["data"]} {
		var m map[string]any
		if json.Unmarshal(raw, &m) != nil {
			continue
		}
		if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
