package models

import "time"

// RefreshToken is the opaque renewal credential of one identity.
type RefreshToken struct {
	UserName  string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token can no longer be exchanged at now.
// A token is expired from ExpiresAt onwards.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) Clone() *RefreshToken {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
