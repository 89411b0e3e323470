package auth

import (
	"strings"
	"testing"
	"time"

	"pontifex-go/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret: "test-secret",
		JWTIssuer: "pontifex",
		JWTTTL:    time.Hour,
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePasswordHash(hash, "correct horse battery"); err != nil {
		t.Errorf("compare with right password: %v", err)
	}
	if err := ComparePasswordHash(hash, "wrong password"); err == nil {
		t.Error("compare with wrong password succeeded")
	}
}

func TestHashPasswordValidation(t *testing.T) {
	tests := []struct {
		name  string
		plain string
	}{
		{"empty", ""},
		{"too short", "short"},
		{"over bcrypt limit", strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HashPassword(tt.plain)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !IsPasswordValidationError(err) {
				t.Errorf("IsPasswordValidationError(%v) = false", err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(42, "alice", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidateToken(tok, cfg)
	if err != nil {
		t.Fatalf("ParseAndValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = %d/%q, want 42/alice", claims.UserID, claims.Username)
	}
	if claims.Issuer != cfg.JWTIssuer {
		t.Errorf("issuer = %q, want %q", claims.Issuer, cfg.JWTIssuer)
	}
	if claims.Subject != "42" {
		t.Errorf("subject = %q, want 42", claims.Subject)
	}
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(1, "bob", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	bad := cfg
	bad.JWTSecret = "different-secret"
	if _, err := ParseAndValidateToken(tok, bad); err == nil {
		t.Error("token validated under the wrong secret")
	}
}

func TestTokenRejectedWithWrongIssuer(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(1, "bob", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := cfg
	other.JWTIssuer = "someone-else"
	if _, err := ParseAndValidateToken(tok, other); err == nil {
		t.Error("token validated under the wrong issuer")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	// Past the 30s parse leeway.
	cfg.JWTTTL = -2 * time.Minute
	tok, err := GenerateToken(1, "bob", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseAndValidateToken(tok, cfg); err == nil {
		t.Error("expired token validated")
	}
}
