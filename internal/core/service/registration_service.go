package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/validation"
)

// MaxUploadBytes caps each registration attachment.
const MaxUploadBytes = 10 << 20

const (
	registerPath         = "/auth/register"
	profilePictureFolder = "profile-pictures"
	transcriptFolder     = "transcripts"
)

// RegistrationService submits staff registrations. Attachments go to object
// storage first; the backend only receives their URLs.
type RegistrationService struct {
	api      ports.APIClient
	uploader ports.Uploader
	log      zerolog.Logger
}

func NewRegistrationService(api ports.APIClient, uploader ports.Uploader, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{api: api, uploader: uploader, log: log}
}

// Submit validates form, uploads its files and posts the registration.
// Nothing is sent when validation fails.
func (s *RegistrationService) Submit(ctx context.Context, form domain.RegistrationForm) (*domain.RegistrationReceipt, error) {
	form.Email = strings.TrimSpace(strings.ToLower(form.Email))
	form.Name = strings.TrimSpace(form.Name)

	if err := validateForm(form); err != nil {
		return nil, err
	}

	var err error
	if form.ProfilePicture != nil {
		if form.ProfilePictureURL, err = s.upload(ctx, profilePictureFolder, form.ProfilePicture); err != nil {
			return nil, err
		}
	}
	if form.Transcript != nil {
		if form.TranscriptURL, err = s.upload(ctx, transcriptFolder, form.Transcript); err != nil {
			return nil, err
		}
	}

	env, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   registerPath,
		Body:   form,
	})
	if err != nil {
		return nil, err
	}

	var receipt domain.RegistrationReceipt
	if err := env.Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decode registration receipt: %w", err)
	}
	if receipt.Message == "" {
		receipt.Message = env.Message
	}
	s.log.Info().Str("email", form.Email).Str("status", receipt.Status).Msg("registration submitted")
	return &receipt, nil
}

func validateForm(form domain.RegistrationForm) error {
	fields := map[string]string{}
	if err := validation.Struct(form); err != nil {
		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) {
			return err
		}
		for k, v := range apiErr.FieldErrors {
			fields[k] = v
		}
	}
	checkUpload(fields, "profile_picture", form.ProfilePicture, "image/")
	checkUpload(fields, "transcript", form.Transcript, "application/pdf", "image/")

	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func checkUpload(fields map[string]string, key string, u *domain.Upload, allowed ...string) {
	if u == nil {
		return
	}
	if u.Size > MaxUploadBytes {
		fields[key] = fmt.Sprintf("File must be smaller than %d MB.", MaxUploadBytes>>20)
		return
	}
	ct := strings.ToLower(u.ContentType)
	for _, a := range allowed {
		if strings.HasPrefix(ct, a) {
			return
		}
	}
	fields[key] = "Unsupported file type."
}

func (s *RegistrationService) upload(ctx context.Context, folder string, u *domain.Upload) (string, error) {
	url, err := s.uploader.Upload(ctx, folder, u)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", u.Filename, err)
	}
	return url, nil
}
