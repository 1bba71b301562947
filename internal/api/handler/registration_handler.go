package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

// RegistrationHandler accepts staff registrations and their autosaved drafts.
type RegistrationHandler struct {
	registrations ports.RegistrationService
	drafts        ports.DraftService
	log           zerolog.Logger
}

func NewRegistrationHandler(registrations ports.RegistrationService, drafts ports.DraftService, log zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, drafts: drafts, log: log}
}

type draftResponse struct {
	ID string `json:"id"`
}

// Submit takes the multipart registration form with its two files.
//
// @Summary      Submit registration
// @Tags         registration
// @Accept       multipart/form-data
// @Produce      json
// @Param        name              formData  string  true   "Full name"
// @Param        email             formData  string  true   "Email"
// @Param        student_id        formData  string  true   "Student ID"
// @Param        password          formData  string  true   "Password"
// @Param        confirm_password  formData  string  true   "Password again"
// @Param        profile_picture   formData  file    true   "Profile picture"
// @Param        transcript        formData  file    true   "Transcript"
// @Param        draft_id          formData  string  false  "Draft to discard on success"
// @Success      201  {object}  domain.RegistrationReceipt
// @Failure      400  {object}  map[string]string
// @Router       /register [post]
func (h *RegistrationHandler) Submit(c echo.Context) error {
	form := domain.RegistrationForm{
		Name:            c.FormValue("name"),
		Email:           c.FormValue("email"),
		StudentID:       c.FormValue("student_id"),
		Degree:          c.FormValue("degree"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	}
	if mf, err := c.MultipartForm(); err == nil {
		form.Courses = mf.Value["courses"]
		form.Availability = mf.Value["availability"]
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()
	for _, f := range []struct {
		field string
		dst   **domain.Upload
	}{
		{"profile_picture", &form.ProfilePicture},
		{"transcript", &form.Transcript},
	} {
		up, cl, err := formUpload(c, f.field)
		if err != nil {
			return err
		}
		if cl != nil {
			closers = append(closers, cl)
		}
		*f.dst = up
	}

	receipt, err := h.registrations.Submit(c.Request().Context(), form)
	if err != nil {
		return err
	}

	if id := c.FormValue("draft_id"); id != "" {
		if err := h.drafts.Discard(c.Request().Context(), id); err != nil && !errors.Is(err, domain.ErrDraftNotFound) {
			h.log.Warn().Err(err).Str("draft_id", id).Msg("draft discard failed after registration")
		}
	}
	return c.JSON(http.StatusCreated, receipt)
}

// formUpload opens a multipart file. A missing file is not an error; the
// service reports it as a field error.
func formUpload(c echo.Context, field string) (*domain.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid upload")
	}
	return toUpload(fh, f), f, nil
}

func toUpload(fh *multipart.FileHeader, body io.Reader) *domain.Upload {
	return &domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        body,
	}
}

// CreateDraft starts an autosaved draft.
//
// @Summary      Create draft
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        body  body      domain.RegistrationForm  true  "Form in progress"
// @Success      202   {object}  draftResponse
// @Router       /register/drafts [post]
func (h *RegistrationHandler) CreateDraft(c echo.Context) error {
	return h.autosave(c, "")
}

// UpdateDraft
//
// @Summary      Update draft
// @Tags         registration
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Draft ID"
// @Param        body  body      domain.RegistrationForm  true  "Form in progress"
// @Success      202   {object}  draftResponse
// @Failure      404   {object}  map[string]string
// @Router       /register/drafts/{id} [put]
func (h *RegistrationHandler) UpdateDraft(c echo.Context) error {
	return h.autosave(c, c.Param("id"))
}

func (h *RegistrationHandler) autosave(c echo.Context, id string) error {
	var form domain.RegistrationForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	id, err := h.drafts.Autosave(id, form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, draftResponse{ID: id})
}

// GetDraft
//
// @Summary      Load draft
// @Tags         registration
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      200  {object}  domain.RegistrationDraft
// @Failure      404  {object}  map[string]string
// @Router       /register/drafts/{id} [get]
func (h *RegistrationHandler) GetDraft(c echo.Context) error {
	draft, err := h.drafts.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, draft)
}

// DeleteDraft
//
// @Summary      Discard draft
// @Tags         registration
// @Param        id   path  string  true  "Draft ID"
// @Success      204
// @Router       /register/drafts/{id} [delete]
func (h *RegistrationHandler) DeleteDraft(c echo.Context) error {
	if err := h.drafts.Discard(c.Request().Context(), c.Param("id")); err != nil && !errors.Is(err, domain.ErrDraftNotFound) {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
