// Package retry wraps backend calls in exponential backoff. Client errors
// (HTTP status below 500) are returned at once; everything else is retried up
// to the attempt ceiling. There is no jitter.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/helpdesk-roster/rosterweb/internal/api/metrics"
	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 400 * time.Millisecond
	DefaultMaxDelay  = 5 * time.Second
	DefaultFactor    = 2.0
)

// Policy controls attempts and delays.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Factor      float64
}

// DefaultPolicy is 3 attempts starting at 400ms, doubling, capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Factor:      DefaultFactor,
	}
}

// Delay returns the wait before the attempt following attempt (1-based):
// min(base * factor^(attempt-1), max).
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	d := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Factor < 1 {
		p.Factor = DefaultFactor
	}
	return p
}

// sleep is replaced in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for functions that return a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var (
		res T
		err error
	)
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		res, err = fn(ctx)
		if err == nil {
			return res, nil
		}
		if !Retryable(err) || ctx.Err() != nil || attempt == p.MaxAttempts {
			return res, err
		}

		metrics.RetriesTotal.Inc()
		if sleepErr := sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return res, err
		}
	}
	return res, err
}

// Retryable reports whether err may be transient: API errors only when the
// status is 5xx, malformed bodies never, anything else (network failures,
// timeouts) always.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrMalformedResponse) {
		return false
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
