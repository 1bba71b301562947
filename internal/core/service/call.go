package service

import (
	"context"
	"fmt"

	"github.com/helpdesk-roster/rosterweb/internal/core/domain"
	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
	"github.com/helpdesk-roster/rosterweb/internal/infrastructure/retry"
)

// fetch runs an idempotent request under policy and decodes the envelope
// data into T.
func fetch[T any](ctx context.Context, api ports.APIClient, policy retry.Policy, req ports.APIRequest) (T, error) {
	return retry.Value(ctx, policy, func(ctx context.Context) (T, error) {
		return send[T](ctx, api, req)
	})
}

// send runs req once and decodes the envelope data into T.
func send[T any](ctx context.Context, api ports.APIClient, req ports.APIRequest) (T, error) {
	var out T
	env, err := api.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if err := env.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w: %w", req.Method, req.Path, domain.ErrMalformedResponse, err)
	}
	return out, nil
}
