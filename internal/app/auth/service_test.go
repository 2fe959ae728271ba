package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123"

func newTestService(t *testing.T) *Service {
	t.Helper()
	checker, err := NewPINChecker("2468")
	if err != nil {
		t.Fatalf("NewPINChecker: %v", err)
	}
	svc, err := New(checker, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestService(t)

	tok, err := svc.Login(context.Background(), "2468")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	session, err := svc.Verify(tok.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if session.ID == "" || !session.ExpiresAt.Equal(tok.ExpiresAt) {
		t.Fatalf("unexpected session %+v for token %+v", session, tok)
	}
}

func TestLoginRejectsWrongPIN(t *testing.T) {
	svc := newTestService(t)

	for _, pin := range []string{"", "1111"} {
		if _, err := svc.Login(context.Background(), pin); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("pin %q: expected ErrInvalidCredentials, got %v", pin, err)
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	svc := newTestService(t)
	tok, _ := svc.Login(context.Background(), "2468")

	other, _ := New(svc.checker, "another-secret-value", time.Hour)
	expired := newTestService(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Login(context.Background(), "2468")

	tests := []struct {
		name  string
		svc   *Service
		token string
	}{
		{name: "empty", svc: svc, token: ""},
		{name: "garbage", svc: svc, token: "not-a-token"},
		{name: "wrong secret", svc: other, token: tok.Token},
		{name: "expired", svc: svc, token: stale.Token},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.svc.Verify(tc.token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestPINCheckerFromHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("1357"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	checker, err := NewPINCheckerFromHash(string(hash))
	if err != nil {
		t.Fatalf("NewPINCheckerFromHash: %v", err)
	}
	if err := checker.CheckPIN(context.Background(), "1357"); err != nil {
		t.Fatalf("CheckPIN: %v", err)
	}
	if _, err := NewPINCheckerFromHash("plain"); err == nil {
		t.Fatalf("expected error for non-bcrypt hash")
	}
}

func TestNewValidates(t *testing.T) {
	checker, _ := NewPINChecker("1")
	if _, err := New(nil, testSecret, 0); err == nil {
		t.Fatalf("expected error for nil checker")
	}
	if _, err := New(checker, "short", 0); err == nil {
		t.Fatalf("expected error for short secret")
	}
	svc, err := New(checker, testSecret, 0)
	if err != nil || svc.ttl != DefaultSessionTTL {
		t.Fatalf("expected default ttl, got %v (%v)", svc, err)
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFrom(ctx); ok {
		t.Fatalf("expected no session")
	}
	ctx = WithSession(ctx, Session{ID: "abc"})
	if s, ok := SessionFrom(ctx); !ok || s.ID != "abc" {
		t.Fatalf("unexpected session %+v", s)
	}
}
