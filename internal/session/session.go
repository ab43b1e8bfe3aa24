// Package session implements the session manager: token issuance,
// sliding expiry, and validation over a mutex-guarded slice of records.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/mailcore/internal/apperr"
	"github.com/ashureev/mailcore/internal/domain"
	"github.com/ashureev/mailcore/internal/store"
)

// Manager issues and validates session tokens against a storage backend.
type Manager struct {
	mu       sync.Mutex
	records  []domain.Session
	repo     store.Repository
	lifetime time.Duration
	now      func() time.Time
}

// New constructs a Manager backed by repo, with the 12-hour sliding
// session lifetime.
func New(repo store.Repository) *Manager {
	return &Manager{repo: repo, lifetime: domain.SessionLifetime, now: time.Now}
}

// generateToken produces a 32-byte random token hex-encoded to 64 ASCII
// chars.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// prune drops expired records. Must be called with mu held.
func (m *Manager) prune() {
	now := m.now()
	out := m.records[:0]
	for _, s := range m.records {
		if !s.Expired(now) {
			out = append(out, s)
		}
	}
	m.records = out
}

// Login authenticates against the backend and issues a fresh token.
func (m *Manager) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := m.repo.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, apperr.InvalidCredentials()
	}
	token, err := m.issue(user.ID)
	if err != nil {
		return "", nil, apperr.Internal("internal_error", err.Error())
	}
	return token, user, nil
}

// Register creates the user, then issues a session for it.
func (m *Manager) Register(ctx context.Context, username, email, password string) (string, *domain.User, error) {
	user, err := m.repo.CreateUser(ctx, username, email, password)
	if err != nil {
		switch err {
		case store.ErrUsernameTaken:
			return "", nil, apperr.Conflict("username_taken")
		case store.ErrEmailTaken:
			return "", nil, apperr.Conflict("email_taken")
		default:
			return "", nil, apperr.Internal("db_error", err.Error())
		}
	}
	token, err := m.issue(user.ID)
	if err != nil {
		return "", nil, apperr.Internal("internal_error", err.Error())
	}
	return token, user, nil
}

func (m *Manager) issue(userID uint64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.records = append(m.records, domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.lifetime),
	})
	return token, nil
}

// Validate prunes expired records, looks up token, and on a hit resets its
// expiry to now plus the full lifetime (sliding expiry) before resolving the
// user.
func (m *Manager) Validate(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	m.prune()
	idx := -1
	for i := range m.records {
		if tokenEqual(m.records[i].Token, token) {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return nil, apperr.Unauthorized()
	}
	m.records[idx].ExpiresAt = m.now().Add(m.lifetime)
	userID := m.records[idx].UserID
	m.mu.Unlock()

	user, err := m.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Unauthorized()
	}
	return user, nil
}

// Logout prunes and removes any record matching token. Always succeeds.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	out := m.records[:0]
	for _, s := range m.records {
		if !tokenEqual(s.Token, token) {
			out = append(out, s)
		}
	}
	m.records = out
}

// tokenEqual is a byte-exact comparison. Not constant-time; tokens are
// opaque random strings with no signing scheme to leak.
func tokenEqual(a, b string) bool {
	return a == b
}
