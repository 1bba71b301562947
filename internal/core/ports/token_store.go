package ports

import (
	"context"
	"time"
)

// TokenSource yields the bearer token to attach to outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// TokenStore persists the session token. Implementations never fail loudly:
// storage errors are logged and the call degrades to a no-op.
type TokenStore interface {
	TokenSource
	Store(ctx context.Context, token string)
	Clear(ctx context.Context)
}

// KV is the key-value backend a TokenStore writes to.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
