package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every reason a token is refused: bad signature,
// wrong algorithm, expiry, malformed input.
var ErrInvalidToken = errors.New("invalid token")

// Verifier checks a bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (jwt.MapClaims, error)
}

// VerifierConfig selects the key source. JWKSURL wins over Secret.
type VerifierConfig struct {
	Alg     string
	Secret  string
	JWKSURL string
}

// NewVerifier builds a JWKS verifier when a key set URL is configured and an
// HMAC verifier otherwise. The JWKS refresh goroutine lives as long as ctx.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (Verifier, error) {
	alg := strings.ToUpper(strings.TrimSpace(cfg.Alg))
	if cfg.JWKSURL != "" {
		if alg == "" {
			alg = "RS256"
		}
		kf, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("load jwks %s: %w", cfg.JWKSURL, err)
		}
		return &keyVerifier{alg: alg, keyFunc: kf.Keyfunc}, nil
	}

	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret or jwks url required")
	}
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	if !strings.HasPrefix(alg, "HS") {
		return nil, fmt.Errorf("jwt: algorithm %s needs a key set", alg)
	}
	return NewHMACVerifier(alg, cfg.Secret), nil
}

// NewHMACVerifier verifies tokens signed with a shared secret.
func NewHMACVerifier(alg, secret string) Verifier {
	key := []byte(secret)
	return &keyVerifier{
		alg:     alg,
		keyFunc: func(*jwt.Token) (any, error) { return key, nil },
	}
}

type keyVerifier struct {
	alg     string
	keyFunc jwt.Keyfunc
}

func (v *keyVerifier) Verify(_ context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, v.keyFunc, jwt.WithValidMethods([]string{v.alg}))
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
