package ports

import (
	"context"
	"encoding/json"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

type ScheduleService interface {
	Generate(ctx context.Context, req domain.GenerateScheduleRequest) (*domain.Schedule, error)
	Save(ctx context.Context, req domain.SaveScheduleRequest) (*domain.Schedule, error)
	Clear(ctx context.Context, req domain.ClearScheduleRequest) error
	Publish(ctx context.Context, req domain.PublishScheduleRequest) error
	StaffAvailability(ctx context.Context, q domain.AvailabilityQuery) ([]domain.StaffAvailability, error)
	BatchCheckAvailability(ctx context.Context, queries []domain.AvailabilityQuery) ([]domain.AvailabilityResult, error)
	Summary(ctx context.Context, scheduleID string) (*domain.ScheduleSummary, error)
	ExportPDF(ctx context.Context, scheduleID string) ([]byte, error)
}

type DashboardService interface {
	AdminDashboard(ctx context.Context) (json.RawMessage, error)
	StudentDashboard(ctx context.Context) (json.RawMessage, error)
	StudentSchedule(ctx context.Context) (*domain.Schedule, error)
	Courses(ctx context.Context) ([]domain.Course, error)
	Me(ctx context.Context) (*domain.User, error)
	UpdateMe(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error)
}

type PerformanceService interface {
	Metrics(ctx context.Context) (json.RawMessage, error)
	Health(ctx context.Context) (json.RawMessage, error)
	SlowOperations(ctx context.Context, limit int) (json.RawMessage, error)
	LogSummary(ctx context.Context, req domain.LogSummaryRequest) (json.RawMessage, error)
	Snapshot(ctx context.Context) (*domain.PerformanceSnapshot, error)
}

type RegistrationService interface {
	Submit(ctx context.Context, form domain.RegistrationForm) (*domain.RegistrationReceipt, error)
}

type DraftService interface {
	Autosave(id string, form domain.RegistrationForm) (string, error)
	Load(ctx context.Context, id string) (*domain.RegistrationDraft, error)
	Discard(ctx context.Context, id string) error
}
