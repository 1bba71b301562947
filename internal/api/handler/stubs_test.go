package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

// newEcho returns an echo instance with the request validator installed.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// stubClient answers backend calls by path and remembers the token each
// call was made with.
type stubClient struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
	tokens  []string
	src     ports.TokenSource
}

func newStubClient() *stubClient {
	return &stubClient{replies: map[string]string{}, errs: map[string]error{}}
}

func (s *stubClient) clientFor(src ports.TokenSource) ports.APIClient {
	s.src = src
	return s
}

func (s *stubClient) Do(ctx context.Context, req ports.APIRequest) (*domain.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := req.Token
	if tok == "" && s.src != nil {
		tok, _ = s.src.Token(ctx)
	}
	s.calls = append(s.calls, req.Method+" "+req.Path)
	s.tokens = append(s.tokens, tok)
	if err := s.errs[req.Path]; err != nil {
		return nil, err
	}
	body, ok := s.replies[req.Path]
	if !ok {
		return nil, &domain.APIError{Status: http.StatusNotFound, Message: domain.DefaultMessage(http.StatusNotFound)}
	}
	return domain.ParseEnvelope([]byte(body))
}

func (s *stubClient) Download(context.Context, ports.APIRequest) ([]byte, string, error) {
	return nil, "", nil
}

type stubSchedules struct {
	generated *domain.GenerateScheduleRequest
	saved     *domain.SaveScheduleRequest
	queries   []domain.AvailabilityQuery
	err       error
}

func (s *stubSchedules) Generate(_ context.Context, req domain.GenerateScheduleRequest) (*domain.Schedule, error) {
	s.generated = &req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Schedule{ID: "s1", StartDate: req.StartDate.Format(domain.DateLayout), EndDate: req.EndDate.Format(domain.DateLayout)}, nil
}

func (s *stubSchedules) Save(_ context.Context, req domain.SaveScheduleRequest) (*domain.Schedule, error) {
	s.saved = &req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Schedule{ID: req.ScheduleID, Assignments: req.Assignments}, nil
}

func (s *stubSchedules) Clear(context.Context, domain.ClearScheduleRequest) error { return s.err }

func (s *stubSchedules) Publish(context.Context, domain.PublishScheduleRequest) error { return s.err }

func (s *stubSchedules) StaffAvailability(_ context.Context, q domain.AvailabilityQuery) ([]domain.StaffAvailability, error) {
	s.queries = append(s.queries, q)
	return []domain.StaffAvailability{{StaffID: "a1", Name: "Ana", Available: true}}, s.err
}

func (s *stubSchedules) BatchCheckAvailability(_ context.Context, qs []domain.AvailabilityQuery) ([]domain.AvailabilityResult, error) {
	s.queries = append(s.queries, qs...)
	if len(qs) == 0 {
		return nil, s.err
	}
	return []domain.AvailabilityResult{{Query: qs[0]}}, s.err
}

func (s *stubSchedules) Summary(context.Context, string) (*domain.ScheduleSummary, error) {
	return &domain.ScheduleSummary{TotalShifts: 10, AssignedShifts: 8}, s.err
}

func (s *stubSchedules) ExportPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4"), s.err
}

type stubDashboards struct {
	updated *domain.ProfileUpdate
	err     error
}

func (s *stubDashboards) AdminDashboard(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"staff":12}`), s.err
}

func (s *stubDashboards) StudentDashboard(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"hours":6}`), s.err
}

func (s *stubDashboards) StudentSchedule(context.Context) (*domain.Schedule, error) {
	return &domain.Schedule{ID: "s1"}, s.err
}

func (s *stubDashboards) Courses(context.Context) ([]domain.Course, error) { return nil, s.err }

func (s *stubDashboards) Me(context.Context) (*domain.User, error) {
	return &domain.User{ID: "u1", Role: domain.RoleAdmin}, s.err
}

func (s *stubDashboards) UpdateMe(_ context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	s.updated = &upd
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: "u1", Name: upd.Name, Role: domain.RoleAdmin}, nil
}

type stubPerformance struct {
	limit int
	err   error
}

func (s *stubPerformance) Metrics(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), s.err
}

func (s *stubPerformance) Health(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), s.err
}

func (s *stubPerformance) SlowOperations(_ context.Context, limit int) (json.RawMessage, error) {
	s.limit = limit
	return json.RawMessage(`[]`), s.err
}

func (s *stubPerformance) LogSummary(context.Context, domain.LogSummaryRequest) (json.RawMessage, error) {
	return json.RawMessage(`{"errors":0}`), s.err
}

func (s *stubPerformance) Snapshot(context.Context) (*domain.PerformanceSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PerformanceSnapshot{Metrics: json.RawMessage(`{"rps":3}`)}, nil
}

type stubRegistrations struct {
	form *domain.RegistrationForm
	body map[string]string
	err  error
}

func (s *stubRegistrations) Submit(_ context.Context, form domain.RegistrationForm) (*domain.RegistrationReceipt, error) {
	s.form = &form
	s.body = map[string]string{}
	for _, u := range []*domain.Upload{form.ProfilePicture, form.Transcript} {
		if u == nil {
			continue
		}
		b, _ := io.ReadAll(u.Body)
		s.body[u.Filename] = string(b)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.RegistrationReceipt{ID: "r1", Status: "pending"}, nil
}

type stubDrafts struct {
	saved     map[string]domain.RegistrationForm
	discarded []string
}

func newStubDrafts() *stubDrafts {
	return &stubDrafts{saved: map[string]domain.RegistrationForm{}}
}

func (s *stubDrafts) Autosave(id string, form domain.RegistrationForm) (string, error) {
	if id == "" {
		id = "11111111-1111-4111-8111-111111111111"
	} else if _, ok := s.saved[id]; !ok {
		return "", domain.ErrDraftNotFound
	}
	s.saved[id] = form
	return id, nil
}

func (s *stubDrafts) Load(_ context.Context, id string) (*domain.RegistrationDraft, error) {
	form, ok := s.saved[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &domain.RegistrationDraft{ID: id, Form: form}, nil
}

func (s *stubDrafts) Discard(_ context.Context, id string) error {
	s.discarded = append(s.discarded, id)
	if _, ok := s.saved[id]; !ok {
		return domain.ErrDraftNotFound
	}
	delete(s.saved, id)
	return nil
}
