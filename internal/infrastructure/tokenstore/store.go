// Package tokenstore keeps the session bearer token under one canonical key
// and moves tokens written under legacy names onto it.
package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-roster/rosterweb/internal/core/ports"
)

const (
	// CanonicalKey is the only key tokens are read from and written to.
	CanonicalKey = "access_token"
	// TokenTTL matches the session cookie lifetime.
	TokenTTL = 7 * 24 * time.Hour
)

// LegacyKeys are names earlier clients stored the token under.
var LegacyKeys = []string{"token", "authToken", "auth_token", "jwt"}

// Store implements ports.TokenStore on top of a KV.
type Store struct {
	kv  ports.KV
	key string
	ttl time.Duration
	log zerolog.Logger
}

// New returns a Store writing to CanonicalKey with TokenTTL.
func New(kv ports.KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, key: CanonicalKey, ttl: TokenTTL, log: log}
}

func (s *Store) Token(ctx context.Context) (string, bool) {
	tok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Debug().Err(err).Msg("token read failed")
		}
		return "", false
	}
	return tok, tok != ""
}

func (s *Store) Store(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.kv.Set(ctx, s.key, token, s.ttl); err != nil {
		s.log.Debug().Err(err).Msg("token write failed")
	}
}

func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.log.Debug().Err(err).Msg("token delete failed")
	}
}

// MigrateLegacy runs once at startup. When the canonical key is empty the
// first legacy key holding a token is copied onto it; every legacy key is then
// removed. The step is bounded by timeout.
func MigrateLegacy(ctx context.Context, s *Store, timeout time.Duration) (migrated bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, ok := s.Token(ctx); !ok {
		for _, k := range LegacyKeys {
			tok, err := s.kv.Get(ctx, k)
			if err != nil || tok == "" {
				continue
			}
			s.Store(ctx, tok)
			migrated = true
			s.log.Info().Str("from", k).Msg("legacy token migrated")
			break
		}
	}

	if err := s.kv.Delete(ctx, LegacyKeys...); err != nil {
		s.log.Debug().Err(err).Msg("legacy token cleanup failed")
	}
	return migrated
}
