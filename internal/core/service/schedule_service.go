package service

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/validation"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
)

const (
	schedulePath     = "/admin/schedule"
	availabilityPath = schedulePath + "/staff-availability"
)

// ScheduleService wraps the admin schedule endpoints. Every request is
// validated before it is sent.
type ScheduleService struct {
	api   ports.APIClient
	retry retry.Policy
	log   zerolog.Logger
}

func NewScheduleService(api ports.APIClient, policy retry.Policy, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{api: api, retry: policy, log: log}
}

// Generate asks the backend to build a roster for the requested range.
func (s *ScheduleService) Generate(ctx context.Context, req domain.GenerateScheduleRequest) (*domain.Schedule, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	sched, err := send[domain.Schedule](ctx, s.api, ports.APIRequest{
		Method: http.MethodPost,
		Path:   schedulePath + "/generate",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("start_date", req.StartDate.Format(domain.DateLayout)).
		Str("end_date", req.EndDate.Format(domain.DateLayout)).
		Int("assignments", len(sched.Assignments)).
		Msg("schedule generated")
	return &sched, nil
}

func validateRange(start, end time.Time) error {
	fields := map[string]string{}
	if start.IsZero() {
		fields["start_date"] = "start date is required"
	}
	if end.IsZero() {
		fields["end_date"] = "end date is required"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}

	if end.Before(start) {
		return domain.NewValidationError(map[string]string{
			"end_date": "End date must be on or after the start date.",
		})
	}
	if end.Sub(start) > domain.MaxScheduleSpanDays*24*time.Hour {
		return domain.NewValidationError(map[string]string{
			"end_date": "A schedule can span at most " + strconv.Itoa(domain.MaxScheduleSpanDays) + " days.",
		})
	}
	return nil
}

// Save stores a batch of assignments. Each one needs a day, a time slot and
// a staff id.
func (s *ScheduleService) Save(ctx context.Context, req domain.SaveScheduleRequest) (*domain.Schedule, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Assignments == nil {
		req.Assignments = []domain.Assignment{}
	}

	sched, err := send[domain.Schedule](ctx, s.api, ports.APIRequest{
		Method: http.MethodPost,
		Path:   schedulePath + "/save",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

// Clear removes assignments, optionally limited to a date range.
func (s *ScheduleService) Clear(ctx context.Context, req domain.ClearScheduleRequest) error {
	_, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   schedulePath + "/clear",
		Body:   req,
	})
	return err
}

// Publish makes a schedule visible to assistants.
func (s *ScheduleService) Publish(ctx context.Context, req domain.PublishScheduleRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	_, err := s.api.Do(ctx, ports.APIRequest{
		Method: http.MethodPost,
		Path:   schedulePath + "/publish",
		Body:   req,
	})
	return err
}

// StaffAvailability lists who is free for one slot.
func (s *ScheduleService) StaffAvailability(ctx context.Context, q domain.AvailabilityQuery) ([]domain.StaffAvailability, error) {
	return fetch[[]domain.StaffAvailability](ctx, s.api, s.retry, ports.APIRequest{
		Method: http.MethodGet,
		Path:   availabilityPath,
		Query: map[string]string{
			"day":        q.Day,
			"start_time": q.StartTime,
			"end_time":   q.EndTime,
		},
	})
}

// BatchCheckAvailability answers up to domain.MaxAvailabilityQueries slots in
// one call.
func (s *ScheduleService) BatchCheckAvailability(ctx context.Context, queries []domain.AvailabilityQuery) ([]domain.AvailabilityResult, error) {
	if len(queries) > domain.MaxAvailabilityQueries {
		return nil, domain.NewValidationError(map[string]string{
			"queries": "At most " + strconv.Itoa(domain.MaxAvailabilityQueries) + " availability checks can be sent at once.",
		})
	}
	if len(queries) == 0 {
		return nil, nil
	}

	return fetch[[]domain.AvailabilityResult](ctx, s.api, s.retry, ports.APIRequest{
		Method: http.MethodPost,
		Path:   availabilityPath + "/batch",
		Body:   map[string]any{"queries": queries},
	})
}

// Summary returns coverage totals. An empty id means the current schedule.
func (s *ScheduleService) Summary(ctx context.Context, scheduleID string) (*domain.ScheduleSummary, error) {
	sum, err := fetch[domain.ScheduleSummary](ctx, s.api, s.retry, ports.APIRequest{
		Method: http.MethodGet,
		Path:   schedulePath + "/summary",
		Query:  map[string]string{"schedule_id": scheduleID},
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// ExportPDF downloads the printable schedule.
func (s *ScheduleService) ExportPDF(ctx context.Context, scheduleID string) ([]byte, error) {
	return retry.Value(ctx, s.retry, func(ctx context.Context) ([]byte, error) {
		body, _, err := s.api.Download(ctx, ports.APIRequest{
			Method: http.MethodGet,
			Path:   schedulePath + "/export/pdf",
			Query:  map[string]string{"schedule_id": scheduleID},
		})
		return body, err
	})
}
