package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrDraftNotFound    = errors.New("registration draft not found")
	ErrForbidden        = errors.New("access forbidden")

	// ErrMalformedResponse marks a backend body that parsed as JSON but does
	// not fit the expected type. Sending the request again cannot fix it.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// Login failure codes returned by the backend.
const (
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeRegistrationPending    = "REG_PENDING"
	CodeRegistrationRejected   = "REG_REJECTED"
	CodeApprovedNotProvisioned = "REG_APPROVED_NOT_PROVISIONED"
)

// APIError is the single error shape for failed backend calls and for
// client-side validation that rejects a request before it is sent.
type APIError struct {
	Status      int               `json:"status"`
	Message     string            `json:"message"`
	Code        string            `json:"code,omitempty"`
	FieldErrors map[string]string `json:"errors,omitempty"`
	Body        json.RawMessage   `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Retryable reports whether the failure may be transient.
func (e *APIError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError
}

// NewValidationError returns a 400 APIError carrying per-field messages.
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Status:      http.StatusBadRequest,
		Message:     DefaultMessage(http.StatusBadRequest),
		FieldErrors: fields,
	}
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// DefaultMessage is the user-facing text shown for a status when the server
// did not supply its own.
func DefaultMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "Please fix the highlighted fields and try again."
	case status == http.StatusUnauthorized:
		return "Your session has expired. Please log in again."
	case status == http.StatusForbidden:
		return "You do not have permission to perform this action."
	case status == http.StatusNotFound:
		return "The requested resource was not found."
	case status == http.StatusConflict:
		return "This request conflicts with existing data."
	case status == http.StatusUnprocessableEntity:
		return "Please review your inputs and try again."
	case status == http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	case status >= http.StatusInternalServerError:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return fmt.Sprintf("Request failed with status %d.", status)
	}
}

// LoginError describes a rejected login attempt with enough detail for the
// caller to render registration-state specific messaging.
type LoginError struct {
	Message     string `json:"message"`
	Code        string `json:"code,omitempty"`
	RequestedAt string `json:"requested_at,omitempty"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
	Status      int    `json:"-"`
	Err         error  `json:"-"`
}

func (e *LoginError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *LoginError) Unwrap() error { return e.Err }
