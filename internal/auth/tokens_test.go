package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T, accessTTL time.Duration) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		Secret:    "test-secret",
		Issuer:    "presethub",
		Audience:  "presethub-clients",
		AccessTTL: accessTTL,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t, time.Minute)

	token, err := m.AccessToken("user-1", "demo@example.com", "demo")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "demo@example.com" || claims.Username != "demo" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenCarriesOnlySubject(t *testing.T) {
	m := newTestManager(t, time.Minute)

	token, err := m.RefreshToken("user-2")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-2" {
		t.Fatalf("expected subject user-2, got %q", claims.UserID)
	}
	if claims.Email != "" || claims.Username != "" {
		t.Fatalf("refresh token should not carry profile claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, err := m.AccessToken("user-3", "", "")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := newTestManager(t, time.Minute)

	other, err := NewManager(Config{
		Secret:   "a-different-secret",
		Issuer:   "presethub",
		Audience: "presethub-clients",
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	token, err := issuer.AccessToken("user-4", "", "")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager(t, time.Minute)

	if _, err := m.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
