package models

import "time"

// Account represents a tracked publisher account on the social platform.
// The ID is the platform's numeric user identifier, not a generated key.
type Account struct {
	ID            int64     `db:"id"`
	Username      string    `db:"username"`
	ProfileURL    string    `db:"profile_url"`
	FollowerCount int64     `db:"follower_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// NewAccount creates a new Account with the given platform identity.
func NewAccount(id int64, username, profileURL string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:         id,
		Username:   username,
		ProfileURL: profileURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
