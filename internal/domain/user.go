// Package domain contains the core entities persisted by the mail server.
package domain

import "time"

// User is an account holder. Username and email are each unique across the
// store.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
