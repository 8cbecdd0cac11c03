// Package models holds the server-side records owned by the credential store.
package models

import "time"

// User is a registered identity. Username is the unique key; hash and salt
// are overwritten together on re-registration.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

// Identity is the public summary of a User. It never carries hash or salt.
type Identity struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity returns the public summary of u.
func (u *User) Identity() *Identity {
	return &Identity{ID: u.ID, UserName: u.UserName, CreatedAt: u.CreatedAt}
}

// Clone returns a deep copy so callers never share byte slices with the
// store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	return &c
}
