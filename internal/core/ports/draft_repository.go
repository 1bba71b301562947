package ports

import (
	"context"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

// DraftRepository persists registration drafts.
type DraftRepository interface {
	Upsert(ctx context.Context, draft *domain.RegistrationDraft) error
	FindByID(ctx context.Context, id string) (*domain.RegistrationDraft, error)
	Delete(ctx context.Context, id string) error
}
