package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "ada@example.com", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if !tok.Exp.After(time.Now()) {
		t.Fatalf("expiry %v is not in the future", tok.Exp)
	}
	sub, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if sub != "ada@example.com" {
		t.Fatalf("subject = %q", sub)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", "ada@example.com", 15)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := NewAccessToken("s3cret", "ada@example.com", -1)
	if err != nil {
		t.Fatal(err)
	}
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ada@example.com",
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "ada@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, secret, raw string
	}{
		{"wrong secret", "other", good.Token},
		{"expired", "s3cret", expired.Token},
		{"no subject", "s3cret", noSub},
		{"no expiry", "s3cret", noExp},
		{"other algorithm", "s3cret", hs512},
		{"garbage", "s3cret", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); err != ErrInvalidToken {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Raw) != 96 || strings.Trim(a.Raw, "0123456789abcdef") != "" {
		t.Fatalf("raw token %q is not 96 hex chars", a.Raw)
	}
	if a.Raw == b.Raw {
		t.Fatal("two refresh tokens are equal")
	}
	if HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) || len(HashRefreshRaw(a.Raw)) != 64 {
		t.Fatal("unexpected refresh hash")
	}
}
