package domain

import (
	"io"
	"time"
)

// RegistrationForm is the staff registration payload. File fields are never
// serialized; they are uploaded separately and replaced by their URLs.
type RegistrationForm struct {
	Name              string   `json:"name"             validate:"required"`
	Email             string   `json:"email"            validate:"required,email"`
	StudentID         string   `json:"student_id"       validate:"required"`
	Degree            string   `json:"degree,omitempty"`
	Password          string   `json:"password"         validate:"required,min=8"`
	ConfirmPassword   string   `json:"confirm_password" validate:"required,eqfield=Password"`
	Courses           []string `json:"courses,omitempty"`
	Availability      []string `json:"availability,omitempty"`
	ProfilePictureURL string   `json:"profile_picture_url,omitempty"`
	TranscriptURL     string   `json:"transcript_url,omitempty"`

	ProfilePicture *Upload `json:"-"`
	Transcript     *Upload `json:"-"`
}

// Upload is a file selected by the user.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// RegistrationDraft is the autosaved, file-free copy of a form in progress.
// Passwords are not kept.
type RegistrationDraft struct {
	ID        string           `json:"id"`
	Form      RegistrationForm `json:"form"`
	UpdatedAt time.Time        `json:"updated_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// RegistrationReceipt is the backend's answer to a submitted registration.
type RegistrationReceipt struct {
	ID          string `json:"id,omitempty"`
	Status      string `json:"status,omitempty"`
	RequestedAt string `json:"requested_at,omitempty"`
	Message     string `json:"message,omitempty"`
}
