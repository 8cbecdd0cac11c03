package client

import (
	"context"
	"time"
)

// Identity is the server's summary of a registered user.
type Identity struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Client interface {
	Close() error
	Register(ctx context.Context, username string, password []byte) (*Identity, error)
	Login(ctx context.Context, username string, password []byte) error
	Refresh(ctx context.Context) error
	WhoAmI(ctx context.Context) (string, error)
	Logout()
	Ping(ctx context.Context) error
}
