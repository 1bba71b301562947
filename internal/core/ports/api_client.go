package ports

import (
	"context"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

// APIRequest describes one call to the rostering backend.
type APIRequest struct {
	Method string
	// Path is resolved against the configured base URL unless it is absolute.
	Path  string
	Query map[string]string
	// Body is JSON-encoded unless it is an io.Reader, which is sent as-is.
	Body any
	// ContentType overrides the JSON default, e.g. for multipart bodies.
	ContentType string
	// Token, when set, is sent instead of the client's token source.
	Token string
}

// APIClient is the transport the domain services depend on.
type APIClient interface {
	Do(ctx context.Context, req APIRequest) (*domain.Envelope, error)
	Download(ctx context.Context, req APIRequest) ([]byte, string, error)
}

// Uploader stores a user file in object storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, file *domain.Upload) (string, error)
}
