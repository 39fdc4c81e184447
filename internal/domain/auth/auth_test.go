package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret1")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if err := CheckPassword(hash, "super-secret1"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: 42, Email: "jane@example.com", Role: RoleEmployee}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.Email != claims.Email || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if parsed.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", parsed.Subject)
	}
}

func TestParseTokenRejects(t *testing.T) {
	good, err := GenerateToken("secret", Claims{UserID: 1, Role: RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	expired, err := GenerateToken("secret", Claims{UserID: 1, Role: RoleAdmin}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	badRole, err := GenerateToken("secret", Claims{UserID: 1, Role: "manager"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	cases := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {secret: "other", token: good},
		"expired":      {secret: "secret", token: expired},
		"unknown role": {secret: "secret", token: badRole},
		"garbage":      {secret: "secret", token: "not-a-token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken(tc.secret, tc.token); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}
