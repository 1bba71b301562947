package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/core/validation"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
)

const performancePath = "/admin/performance"

// DefaultRefreshInterval is how often a Monitor polls.
const DefaultRefreshInterval = 30 * time.Second

// PerformanceService reads the backend's own performance endpoints.
type PerformanceService struct {
	api   ports.APIClient
	retry retry.Policy
	now   func() time.Time
}

func NewPerformanceService(api ports.APIClient, policy retry.Policy) *PerformanceService {
	return &PerformanceService{api: api, retry: policy, now: time.Now}
}

func (s *PerformanceService) Metrics(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, performancePath+"/metrics", nil)
}

func (s *PerformanceService) Health(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, performancePath+"/health", nil)
}

// SlowOperations lists the slowest recent operations. limit <= 0 leaves the
// backend default.
func (s *PerformanceService) SlowOperations(ctx context.Context, limit int) (json.RawMessage, error) {
	q := map[string]string{}
	if limit > 0 {
		q["limit"] = strconv.Itoa(limit)
	}
	return s.get(ctx, performancePath+"/slow-operations", q)
}

// LogSummary asks the backend to aggregate its logs.
func (s *PerformanceService) LogSummary(ctx context.Context, req domain.LogSummaryRequest) (json.RawMessage, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, s.api, ports.APIRequest{
		Method: http.MethodPost,
		Path:   performancePath + "/log-summary",
		Body:   req,
	})
}

// Snapshot fetches metrics, health and slow operations in one pass.
func (s *PerformanceService) Snapshot(ctx context.Context) (*domain.PerformanceSnapshot, error) {
	m, err := s.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.Health(ctx)
	if err != nil {
		return nil, err
	}
	slow, err := s.SlowOperations(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &domain.PerformanceSnapshot{Metrics: m, Health: h, SlowOperations: slow, FetchedAt: s.now()}, nil
}

func (s *PerformanceService) get(ctx context.Context, path string, q map[string]string) (json.RawMessage, error) {
	return fetch[json.RawMessage](ctx, s.api, s.retry, ports.APIRequest{Method: http.MethodGet, Path: path, Query: q})
}

// Monitor polls a PerformanceService on a fixed interval. Refresh may be
// called at any time, including while a tick is in flight; the two are not
// coalesced.
type Monitor struct {
	svc      *PerformanceService
	interval time.Duration
	log      zerolog.Logger
	onUpdate func(*domain.PerformanceSnapshot)

	mu      sync.RWMutex
	latest  *domain.PerformanceSnapshot
	lastErr error
}

// NewMonitor returns a Monitor. onUpdate, when non-nil, receives every
// successful snapshot.
func NewMonitor(svc *PerformanceService, interval time.Duration, log zerolog.Logger, onUpdate func(*domain.PerformanceSnapshot)) *Monitor {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Monitor{svc: svc, interval: interval, log: log, onUpdate: onUpdate}
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if _, err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
		m.log.Warn().Err(err).Msg("performance refresh failed")
	}
}

// Refresh fetches a snapshot now.
func (m *Monitor) Refresh(ctx context.Context) (*domain.PerformanceSnapshot, error) {
	snap, err := m.svc.Snapshot(ctx)

	m.mu.Lock()
	m.lastErr = err
	if err == nil {
		m.latest = snap
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if m.onUpdate != nil {
		m.onUpdate(snap)
	}
	return snap, nil
}

// Latest returns the last successful snapshot and the error of the most
// recent attempt.
func (m *Monitor) Latest() (*domain.PerformanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.lastErr
}
