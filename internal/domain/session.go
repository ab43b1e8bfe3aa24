package domain

import "time"

// SessionLifetime is the sliding-expiry window: each successful validation
// resets a session's expiry to now plus this much.
const SessionLifetime = 12 * time.Hour

// Session is an issued, opaque auth token and its sliding expiry.
type Session struct {
	Token     string
	UserID    uint64
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at instant now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
