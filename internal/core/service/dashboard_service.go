package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/validation"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
)

// DashboardService fetches the role dashboards and the user's own profile.
// Dashboard bodies are passed through as returned by the backend.
type DashboardService struct {
	api   ports.APIClient
	retry retry.Policy
}

func NewDashboardService(api ports.APIClient, policy retry.Policy) *DashboardService {
	return &DashboardService{api: api, retry: policy}
}

func (s *DashboardService) AdminDashboard(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, "/admin/dashboard")
}

func (s *DashboardService) StudentDashboard(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, "/student/dashboard")
}

func (s *DashboardService) StudentSchedule(ctx context.Context) (*domain.Schedule, error) {
	sched, err := fetch[domain.Schedule](ctx, s.api, s.retry, ports.APIRequest{Method: http.MethodGet, Path: "/student/schedule"})
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *DashboardService) Courses(ctx context.Context) ([]domain.Course, error) {
	return fetch[[]domain.Course](ctx, s.api, s.retry, ports.APIRequest{Method: http.MethodGet, Path: "/courses"})
}

// Me returns the normalized profile of the caller.
func (s *DashboardService) Me(ctx context.Context) (*domain.User, error) {
	env, err := retry.Value(ctx, s.retry, func(ctx context.Context) (*domain.Envelope, error) {
		return s.api.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: "/me"})
	})
	if err != nil {
		return nil, err
	}
	return userFrom(env)
}

// UpdateMe changes the caller's profile and returns the stored result.
func (s *DashboardService) UpdateMe(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}
	env, err := s.api.Do(ctx, ports.APIRequest{Method: http.MethodPut, Path: "/me", Body: upd})
	if err != nil {
		return nil, err
	}
	return userFrom(env)
}

func (s *DashboardService) get(ctx context.Context, path string) (json.RawMessage, error) {
	return fetch[json.RawMessage](ctx, s.api, s.retry, ports.APIRequest{Method: http.MethodGet, Path: path})
}

func userFrom(env *domain.Envelope) (*domain.User, error) {
	if u := domain.ExtractUser(env.Raw); u != nil {
		return u, nil
	}
	return nil, &domain.APIError{Status: http.StatusBadGateway, Message: "The server returned an unexpected profile."}
}
