package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/session"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/tokenstore"
)

// ClientFor returns a backend client that reads its token from src.
type ClientFor func(src ports.TokenSource) ports.APIClient

// SessionHandler runs the login flows on behalf of the browser and keeps the
// session cookies in step with the backend.
type SessionHandler struct {
	clientFor ClientFor
	profile   ports.DashboardService
	cookies   tokenstore.CookieOptions
	opts      session.Options
	log       zerolog.Logger
}

func NewSessionHandler(clientFor ClientFor, profile ports.DashboardService, cookies tokenstore.CookieOptions, opts session.Options, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{clientFor: clientFor, profile: profile, cookies: cookies, opts: opts, log: log}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"required"`
}

type sessionResponse struct {
	User *domain.User `json:"user"`
}

// newSession builds a request-scoped session seeded with the caller's token.
func (h *SessionHandler) newSession(c echo.Context) (*session.Session, *tokenstore.Store) {
	store := tokenstore.New(tokenstore.NewMemoryKV(), h.log)
	if tok := tokenstore.TokenFromRequest(c.Request(), h.cookies.Name); tok != "" {
		store.Store(c.Request().Context(), tok)
	}
	return session.New(h.clientFor(store), store, h.log, h.opts), store
}

// Login signs the user in and sets the session cookies.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	sess, store := h.newSession(c)
	user, err := sess.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if tok, ok := store.Token(c.Request().Context()); ok {
		tokenstore.SetSessionCookies(c.Response(), h.cookies, tok)
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user})
}

// Register creates an account, signs it in and sets the session cookies.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	sess, store := h.newSession(c)
	store.Clear(c.Request().Context())
	user, err := sess.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	if tok, ok := store.Token(c.Request().Context()); ok {
		tokenstore.SetSessionCookies(c.Response(), h.cookies, tok)
	}
	return c.JSON(http.StatusCreated, sessionResponse{User: user})
}

// Logout clears the session cookies and tells the backend.
//
// @Summary      Logout
// @Tags         session
// @Success      204
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	sess, _ := h.newSession(c)
	tokenstore.ClearSessionCookies(c.Response(), h.cookies)
	sess.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in user. A stale token clears the cookies.
//
// @Summary      Current user
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /session/me [get]
func (h *SessionHandler) Me(c echo.Context) error {
	sess, _ := h.newSession(c)
	_ = sess.Bootstrap(c.Request().Context())

	if sess.State() != session.StateAuthenticated {
		tokenstore.ClearSessionCookies(c.Response(), h.cookies)
		return domain.ErrNotAuthenticated
	}
	return c.JSON(http.StatusOK, sessionResponse{User: sess.User()})
}

// UpdateMe changes the signed-in user's profile.
//
// @Summary      Update profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ProfileUpdate  true  "Profile fields"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /session/me [put]
func (h *SessionHandler) UpdateMe(c echo.Context) error {
	if tokenstore.TokenFromRequest(c.Request(), h.cookies.Name) == "" {
		return domain.ErrNotAuthenticated
	}
	var req domain.ProfileUpdate
	if err := bindValid(c, &req); err != nil {
		return err
	}
	user, err := h.profile.UpdateMe(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user})
}
