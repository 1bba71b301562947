package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHMACVerifier_Valid(t *testing.T) {
	v := NewHMACVerifier("HS256", "secret")
	tok := sign(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{"sub": "42", "role": "admin"})

	claims, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims["role"] != "admin" {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v := NewHMACVerifier("HS256", "secret")
	cases := map[string]string{
		"wrong secret": sign(t, jwt.SigningMethodHS256, "other", jwt.MapClaims{"role": "admin"}),
		"wrong alg":    sign(t, jwt.SigningMethodHS512, "secret", jwt.MapClaims{"role": "admin"}),
		"expired":      sign(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}),
		"garbage":      "not.a.jwt",
	}
	for name, tok := range cases {
		if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewVerifier_Selection(t *testing.T) {
	if _, err := NewVerifier(context.Background(), VerifierConfig{}); err == nil {
		t.Fatalf("expected error without key material")
	}
	if _, err := NewVerifier(context.Background(), VerifierConfig{Alg: "RS256", Secret: "s"}); err == nil {
		t.Fatalf("expected error for asymmetric alg with a shared secret")
	}

	v, err := NewVerifier(context.Background(), VerifierConfig{Alg: "hs384", Secret: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok := sign(t, jwt.SigningMethodHS384, "s", jwt.MapClaims{"type": "student"})
	if _, err := v.Verify(context.Background(), tok); err != nil {
		t.Fatalf("configured alg must verify: %v", err)
	}
}
