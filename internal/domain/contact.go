package domain

import "time"

// Contact is an address-book entry: user's reference to another user.
type Contact struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"userId"`
	ContactUserID uint64    `json:"contactUserId"`
	Alias         string    `json:"alias"`
	GroupName     string    `json:"groupName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
