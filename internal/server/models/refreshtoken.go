package models

import "time"

// RefreshToken is a row of refresh_tokens. Each token is single use: a
// refresh deletes it and issues a new one.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}
