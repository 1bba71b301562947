package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

// recordSleeps swaps the sleeper for the duration of a test.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &waits
}

func TestDo_RetriesServerErrorsUpToCeiling(t *testing.T) {
	waits := recordSleeps(t)

	for _, status := range []int{500, 502, 503, 504} {
		*waits = nil
		calls := 0
		err := Do(context.Background(), DefaultPolicy(), func(context.Context) error {
			calls++
			return &domain.APIError{Status: status}
		})
		if !domain.IsStatus(err, status) {
			t.Fatalf("status %d: expected final APIError, got %v", status, err)
		}
		if calls != DefaultAttempts {
			t.Errorf("status %d: expected %d attempts, got %d", status, DefaultAttempts, calls)
		}
		if len(*waits) != DefaultAttempts-1 {
			t.Errorf("status %d: expected %d waits, got %d", status, DefaultAttempts-1, len(*waits))
		}
	}
}

func TestDo_ClientErrorsAttemptOnce(t *testing.T) {
	waits := recordSleeps(t)

	for _, status := range []int{400, 401, 403, 404, 409, 422, 429} {
		calls := 0
		err := Do(context.Background(), DefaultPolicy(), func(context.Context) error {
			calls++
			return &domain.APIError{Status: status}
		})
		if !domain.IsStatus(err, status) {
			t.Fatalf("status %d: unexpected error %v", status, err)
		}
		if calls != 1 {
			t.Errorf("status %d: expected exactly one attempt, got %d", status, calls)
		}
	}
	if len(*waits) != 0 {
		t.Errorf("client errors must never wait, got %v", *waits)
	}
}

func TestDo_NetworkErrorRetriedThenSucceeds(t *testing.T) {
	recordSleeps(t)

	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDo_MalformedResponseAttemptsOnce(t *testing.T) {
	waits := recordSleeps(t)

	calls := 0
	err := Do(context.Background(), DefaultPolicy(), func(context.Context) error {
		calls++
		return fmt.Errorf("decode GET /courses: %w: %w", domain.ErrMalformedResponse, errors.New("cannot unmarshal object"))
	})
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
	if calls != 1 || len(*waits) != 0 {
		t.Fatalf("expected one attempt without waits, got calls=%d waits=%v", calls, *waits)
	}
}

func TestValue_ReturnsResult(t *testing.T) {
	recordSleeps(t)

	got, err := Value(context.Background(), DefaultPolicy(), func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	recordSleeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, DefaultPolicy(), func(context.Context) error {
		calls++
		cancel()
		return &domain.APIError{Status: http.StatusServiceUnavailable}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one attempt and an error, got calls=%d err=%v", calls, err)
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 6, BaseDelay: 400 * time.Millisecond, MaxDelay: 2 * time.Second, Factor: 2}

	want := []time.Duration{
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		2 * time.Second,
		2 * time.Second,
	}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestDo_UsesBackoffSchedule(t *testing.T) {
	waits := recordSleeps(t)
	p := Policy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Factor: 2}

	_ = Do(context.Background(), p, func(context.Context) error {
		return &domain.APIError{Status: 500}
	})

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(*waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), *waits)
	}
	for i := range want {
		if (*waits)[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, (*waits)[i], want[i])
		}
	}
}
