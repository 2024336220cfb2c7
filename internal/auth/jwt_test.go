package auth

import (
	"testing"
	"time"

	"ai-recruiter/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:         "test-secret",
		JWTIssuer:         "ai-recruiter",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   24 * time.Hour,
		RecruiterEmail:    "hr@example.com",
		RecruiterPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return m
}

func TestLogin_IssuesVerifiablePair(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1756000000, 0).UTC()

	pair, err := m.Login(now, "hr@example.com", "hunter2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("access token should verify: %v", err)
	}
	if claims.Email != "hr@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}

	if _, err := m.Verify(pair.RefreshToken, TokenTypeRefresh, now.Add(time.Minute)); err != nil {
		t.Fatalf("refresh token should verify: %v", err)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	if _, err := m.Login(now, "hr@example.com", "wrong"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := m.Login(now, "someone@else.com", "hunter2"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVerify_RejectsWrongTokenType(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1756000000, 0).UTC()

	pair, err := m.IssuePair(now, "hr@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := m.Verify(pair.RefreshToken, TokenTypeAccess, now.Add(time.Minute)); err == nil {
		t.Fatalf("refresh token must not pass as access token")
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1756000000, 0).UTC()

	pair, err := m.IssuePair(now, "hr@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(16*time.Minute)); err == nil {
		t.Fatalf("expired token should not verify")
	}
}

func TestNewManager_RequiresSecretAndCredentials(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := NewManager(config.AuthConfig{JWTSecret: "s"}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
