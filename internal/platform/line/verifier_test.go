package line

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signIDToken(t *testing.T, secret string, claims idTokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(now time.Time) idTokenClaims {
	return idTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "U1234567890",
			Audience:  jwt.ClaimStrings{"1650000000"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Name:    "山田 太郎",
		Picture: "https://profile.line-scdn.net/abc",
	}
}

func TestVerifyIDToken(t *testing.T) {
	v, err := NewVerifier("1650000000", "channel-secret")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	now := time.Now()

	id, err := v.VerifyIDToken(context.Background(), signIDToken(t, "channel-secret", validClaims(now)))
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if id.UserID != "U1234567890" || id.DisplayName != "山田 太郎" {
		t.Fatalf("identity: %+v", id)
	}
}

func TestVerifyIDTokenRejects(t *testing.T) {
	v, _ := NewVerifier("1650000000", "channel-secret")
	now := time.Now()

	wrongAud := validClaims(now)
	wrongAud.Audience = jwt.ClaimStrings{"other-channel"}

	wrongIss := validClaims(now)
	wrongIss.Issuer = "https://example.com"

	expired := validClaims(now)
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))

	noSub := validClaims(now)
	noSub.Subject = ""

	cases := map[string]string{
		"empty":        "",
		"wrong secret": signIDToken(t, "other-secret", validClaims(now)),
		"wrong aud":    signIDToken(t, "channel-secret", wrongAud),
		"wrong iss":    signIDToken(t, "channel-secret", wrongIss),
		"expired":      signIDToken(t, "channel-secret", expired),
		"missing sub":  signIDToken(t, "channel-secret", noSub),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.VerifyIDToken(context.Background(), tok); !errors.Is(err, ErrInvalidIDToken) {
				t.Fatalf("want ErrInvalidIDToken, got %v", err)
			}
		})
	}
}

func TestNewVerifierRequiresChannel(t *testing.T) {
	if _, err := NewVerifier("", "secret"); err == nil {
		t.Fatalf("expected error for missing channel id")
	}
	if _, err := NewVerifier("id", ""); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}
