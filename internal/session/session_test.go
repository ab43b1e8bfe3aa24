package session

import (
	"context"
	"testing"
	"time"

	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.MemoryStore) {
	t.Helper()
	repo := store.NewMemory()
	if _, err := repo.CreateUser(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return New(repo), repo
}

func isHexToken(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func TestLoginIssuesHexToken(t *testing.T) {
	m, _ := newTestManager(t)
	token, user, err := m.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !isHexToken(token) {
		t.Fatalf("token = %q, want 64 lowercase hex chars", token)
	}
	if user.Username != "alice" {
		t.Fatalf("user.Username = %q", user.Username)
	}

	token2, _, err := m.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if token2 == token {
		t.Fatalf("two logins produced the same token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	m, _ := newTestManager(t)
	if _, _, err := m.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatalf("expected invalid credentials error")
	}
}

func TestValidateExtendsExpiry(t *testing.T) {
	m, _ := newTestManager(t)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	token, _, err := m.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// 11 hours in: still inside the window; validation slides the expiry.
	current = current.Add(11 * time.Hour)
	if _, err := m.Validate(context.Background(), token); err != nil {
		t.Fatalf("Validate at 11h: %v", err)
	}

	// Another 11 hours: only valid because the prior validation extended it.
	current = current.Add(11 * time.Hour)
	if _, err := m.Validate(context.Background(), token); err != nil {
		t.Fatalf("Validate at 22h after sliding: %v", err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	m, _ := newTestManager(t)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	token, _, err := m.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	current = current.Add(domain.SessionLifetime + time.Minute)
	if _, err := m.Validate(context.Background(), token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestLogoutRemovesToken(t *testing.T) {
	m, _ := newTestManager(t)
	token, _, err := m.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	m.Logout(token)
	if _, err := m.Validate(context.Background(), token); err == nil {
		t.Fatalf("token still valid after logout")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	m, _ := newTestManager(t)
	if _, _, err := m.Register(context.Background(), "alice", "other@x.com", "abcdef"); err == nil {
		t.Fatalf("expected duplicate-username error")
	}
}

func TestRegisterIssuesSession(t *testing.T) {
	m, _ := newTestManager(t)
	token, user, err := m.Register(context.Background(), "bob", "bob@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !isHexToken(token) {
		t.Fatalf("token = %q, want 64 hex chars", token)
	}
	got, err := m.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("Validate resolved user %d, want %d", got.ID, user.ID)
	}
}
