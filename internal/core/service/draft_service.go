package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/api/metrics"
	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

// DefaultDraftTTL is how long an untouched draft is kept.
const DefaultDraftTTL = 7 * 24 * time.Hour

// Scheduler runs the latest task for a key after a quiet period.
type Scheduler interface {
	Schedule(key string, task func(ctx context.Context) error)
	Flush(key string) bool
	Cancel(key string) bool
}

// DraftService autosaves registration forms in progress. Saves for the same
// draft are debounced and the last one wins.
type DraftService struct {
	repo  ports.DraftRepository
	sched Scheduler
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func NewDraftService(repo ports.DraftRepository, sched Scheduler, ttl time.Duration, log zerolog.Logger) *DraftService {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftService{repo: repo, sched: sched, ttl: ttl, now: time.Now, log: log}
}

// Autosave queues form for persistence under id and returns the draft id. An
// empty id starts a new draft. Passwords and files are never stored.
func (s *DraftService) Autosave(id string, form domain.RegistrationForm) (string, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return "", domain.ErrDraftNotFound
	}

	form.Password, form.ConfirmPassword = "", ""
	form.ProfilePicture, form.Transcript = nil, nil
	form.ProfilePictureURL, form.TranscriptURL = "", ""

	now := s.now().UTC()
	draft := &domain.RegistrationDraft{
		ID:        id,
		Form:      form,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.sched.Schedule(id, func(ctx context.Context) error {
		err := s.repo.Upsert(ctx, draft)
		if err != nil {
			metrics.DraftSavesTotal.WithLabelValues("error").Inc()
			return err
		}
		metrics.DraftSavesTotal.WithLabelValues("ok").Inc()
		return nil
	})
	return id, nil
}

// Load returns the stored draft. A pending save is written first.
func (s *DraftService) Load(ctx context.Context, id string) (*domain.RegistrationDraft, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrDraftNotFound
	}
	s.sched.Flush(id)

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.ExpiresAt.IsZero() && s.now().After(d.ExpiresAt) {
		_ = s.repo.Delete(ctx, id)
		return nil, domain.ErrDraftNotFound
	}
	return d, nil
}

// Discard drops a pending save and deletes the stored draft.
func (s *DraftService) Discard(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrDraftNotFound
	}
	s.sched.Cancel(id)
	return s.repo.Delete(ctx, id)
}
