// Package credentials declares the credential store: the only mutable state
// of the server. It owns every registered identity together with that
// identity's single active refresh token.
//
// Three implementations are provided: MemoryRepository (default, process
// lifetime), PostgresRepository and RedisRepository. All of them serialize
// writes per identity so a refresh token rotation can never be lost to a
// concurrent write, and readers never observe a partially written record.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the credential store contract.
type Repository interface {
	// Save stores user under its username, replacing any previous identity
	// with that name wholesale. The identity's refresh token is cleared.
	Save(ctx context.Context, user *models.User) error

	// Create stores user only if the username is free. Otherwise it returns
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	// Find returns the identity registered under username, or
	// common.ErrorNotFound.
	Find(ctx context.Context, username string) (*models.User, error)

	// AttachRefresh replaces the refresh token of the identity registered
	// under username, provided that identity still has id userID. A missing
	// or since re-registered identity yields common.ErrorNotFound and
	// nothing is written.
	AttachRefresh(ctx context.Context, username, userID string, token *models.RefreshToken) error

	// CurrentRefresh returns the identity's active refresh token, or
	// common.ErrorNotFound when there is none.
	CurrentRefresh(ctx context.Context, username string) (*models.RefreshToken, error)

	// FindRefresh looks up an active refresh token by its value and returns
	// it with its owner. Unknown or superseded values yield
	// common.ErrorNotFound.
	FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error)

	// RotateRefresh replaces the identity's refresh token with next only if
	// the current token equals presented. Otherwise nothing is written and
	// common.ErrInvalidRefreshToken is returned. Of several concurrent calls
	// presenting the same token at most one succeeds.
	RotateRefresh(ctx context.Context, username, presented string, next *models.RefreshToken) error

	// Close releases the underlying connections, if any.
	Close() error
}
