package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
)

// fastRetry keeps the attempt ceiling but waits a nanosecond between tries.
var fastRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Nanosecond, MaxDelay: time.Nanosecond, Factor: 2}

type stubReply struct {
	body        string
	err         error
	contentType string
}

// stubAPI answers by path. A path may queue several replies; the last one
// repeats.
type stubAPI struct {
	mu      sync.Mutex
	replies map[string][]stubReply
	calls   []ports.APIRequest
}

func newStubAPI() *stubAPI {
	return &stubAPI{replies: make(map[string][]stubReply)}
}

func (a *stubAPI) on(path string, replies ...stubReply) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[path] = append(a.replies[path], replies...)
}

// set replaces the queued replies for path.
func (a *stubAPI) set(path string, replies ...stubReply) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[path] = replies
}

func (a *stubAPI) next(path string) (stubReply, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rs := a.replies[path]
	if len(rs) == 0 {
		return stubReply{}, false
	}
	r := rs[0]
	if len(rs) > 1 {
		a.replies[path] = rs[1:]
	}
	return r, true
}

func (a *stubAPI) record(req ports.APIRequest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, req)
}

func (a *stubAPI) Do(_ context.Context, req ports.APIRequest) (*domain.Envelope, error) {
	a.record(req)
	r, ok := a.next(req.Path)
	if !ok {
		return nil, &domain.APIError{Status: http.StatusNotFound}
	}
	if r.err != nil {
		return nil, r.err
	}
	return domain.ParseEnvelope([]byte(r.body))
}

func (a *stubAPI) Download(_ context.Context, req ports.APIRequest) ([]byte, string, error) {
	a.record(req)
	r, ok := a.next(req.Path)
	if !ok {
		return nil, "", &domain.APIError{Status: http.StatusNotFound}
	}
	if r.err != nil {
		return nil, "", r.err
	}
	return []byte(r.body), r.contentType, nil
}

func (a *stubAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *stubAPI) lastCall() ports.APIRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[len(a.calls)-1]
}

func ok(body string) stubReply    { return stubReply{body: body} }
func failing(err error) stubReply { return stubReply{err: err} }

var errNetwork = errors.New("connection reset")

func fieldErrors(err error) map[string]string {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	return apiErr.FieldErrors
}
