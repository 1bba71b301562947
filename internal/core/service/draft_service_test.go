package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

type memDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]domain.RegistrationDraft
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{drafts: make(map[string]domain.RegistrationDraft)}
}

func (r *memDraftRepo) Upsert(_ context.Context, d *domain.RegistrationDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.ID] = *d
	return nil
}

func (r *memDraftRepo) FindByID(_ context.Context, id string) (*domain.RegistrationDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &d, nil
}

func (r *memDraftRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	return nil
}

// manualScheduler keeps the latest task per key until Flush.
type manualScheduler struct {
	tasks map[string]func(context.Context) error
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: make(map[string]func(context.Context) error)}
}

func (s *manualScheduler) Schedule(key string, task func(context.Context) error) { s.tasks[key] = task }

func (s *manualScheduler) Flush(key string) bool {
	task, ok := s.tasks[key]
	if ok {
		delete(s.tasks, key)
		_ = task(context.Background())
	}
	return ok
}

func (s *manualScheduler) Cancel(key string) bool {
	_, ok := s.tasks[key]
	delete(s.tasks, key)
	return ok
}

func TestDraftService_AutosaveLastWriteWins(t *testing.T) {
	repo := newMemDraftRepo()
	sched := newManualScheduler()
	svc := NewDraftService(repo, sched, time.Hour, zerolog.Nop())

	id, err := svc.Autosave("", domain.RegistrationForm{Name: "A"})
	if err != nil || id == "" {
		t.Fatalf("expected new id, got %q (%v)", id, err)
	}
	if _, err := svc.Autosave(id, domain.RegistrationForm{Name: "AB"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.drafts) != 0 {
		t.Fatalf("saves must wait for the debounce")
	}

	d, err := svc.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Form.Name != "AB" {
		t.Fatalf("expected last write, got %q", d.Form.Name)
	}
}

func TestDraftService_StripsSecretsAndFiles(t *testing.T) {
	repo := newMemDraftRepo()
	sched := newManualScheduler()
	svc := NewDraftService(repo, sched, time.Hour, zerolog.Nop())

	form := domain.RegistrationForm{
		Name:              "A",
		Password:          "secret-pass",
		ConfirmPassword:   "secret-pass",
		ProfilePicture:    &domain.Upload{Filename: "me.png"},
		ProfilePictureURL: "https://files/x",
	}
	id, _ := svc.Autosave("", form)
	sched.Flush(id)

	d := repo.drafts[id]
	if d.Form.Password != "" || d.Form.ConfirmPassword != "" || d.Form.ProfilePicture != nil || d.Form.ProfilePictureURL != "" {
		t.Fatalf("draft kept secrets or files: %+v", d.Form)
	}
	if !d.ExpiresAt.Equal(d.UpdatedAt.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v for %v", d.ExpiresAt, d.UpdatedAt)
	}
}

func TestDraftService_LoadExpired(t *testing.T) {
	repo := newMemDraftRepo()
	svc := NewDraftService(repo, newManualScheduler(), time.Hour, zerolog.Nop())

	id := "9b2f7c8e-1d3a-4c5b-8e6f-0a1b2c3d4e5f"
	_ = repo.Upsert(context.Background(), &domain.RegistrationDraft{ID: id, ExpiresAt: time.Now().Add(-time.Minute)})

	if _, err := svc.Load(context.Background(), id); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if _, ok := repo.drafts[id]; ok {
		t.Fatalf("expired draft must be removed")
	}
}

func TestDraftService_DiscardCancelsPending(t *testing.T) {
	repo := newMemDraftRepo()
	sched := newManualScheduler()
	svc := NewDraftService(repo, sched, time.Hour, zerolog.Nop())

	id, _ := svc.Autosave("", domain.RegistrationForm{Name: "A"})
	if err := svc.Discard(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.Flush(id) {
		t.Fatalf("pending save must be cancelled")
	}
	if _, err := svc.Load(context.Background(), id); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestDraftService_RejectsMalformedIDs(t *testing.T) {
	svc := NewDraftService(newMemDraftRepo(), newManualScheduler(), time.Hour, zerolog.Nop())

	if _, err := svc.Autosave("../etc", domain.RegistrationForm{}); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if _, err := svc.Load(context.Background(), "nope"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}
