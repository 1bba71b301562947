package tokenstore

import (
	"context"

	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

type ctxKey struct{}

// WithToken returns a context carrying the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

// FromContext is a TokenSource reading the token put there by WithToken.
type FromContext struct{}

func (FromContext) Token(ctx context.Context) (string, bool) {
	tok, _ := ctx.Value(ctxKey{}).(string)
	return tok, tok != ""
}

// Static always yields the same token.
type Static string

func (s Static) Token(context.Context) (string, bool) { return string(s), s != "" }

// Chain asks each source in order and returns the first token found.
type Chain []ports.TokenSource

func (c Chain) Token(ctx context.Context) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if tok, ok := src.Token(ctx); ok {
			return tok, true
		}
	}
	return "", false
}
