package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository stores identities in the users table and the single
// active refresh token of each identity in refresh_tokens.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, user *models.User) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO users (id, username, password_hash, password_salt, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (username) DO UPDATE
			 SET id = EXCLUDED.id,
			     password_hash = EXCLUDED.password_hash,
			     password_salt = EXCLUDED.password_salt,
			     created_at = EXCLUDED.created_at
			 `

		_, err := tx.ExecContext(ctx, query,
			user.ID, user.UserName, user.PasswordHash, user.PasswordSalt, user.CreatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE username = $1`, user.UserName)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return nil
	})
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, username, password_hash, password_salt, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.PasswordHash, user.PasswordSalt, user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, password_salt, created_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.PasswordSalt, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) AttachRefresh(ctx context.Context, username, userID string, token *models.RefreshToken) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// Row lock on the identity serializes against Save. The id predicate
		// is re-checked after the lock is granted, so a concurrent
		// re-registration leaves no row.
		var locked string
		err := tx.QueryRowContext(ctx,
			`SELECT username FROM users WHERE username = $1 AND id = $2 FOR UPDATE`,
			username, userID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		query :=
			`INSERT INTO refresh_tokens (username, token, created_at, expires_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (username) DO UPDATE
			 SET token = EXCLUDED.token,
			     created_at = EXCLUDED.created_at,
			     expires_at = EXCLUDED.expires_at
			 `

		_, err = tx.ExecContext(ctx, query, username, token.Token, token.CreatedAt, token.ExpiresAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return nil
	})
}

func (r *PostgresRepository) CurrentRefresh(ctx context.Context, username string) (*models.RefreshToken, error) {
	query :=
		`SELECT username, token, created_at, expires_at FROM refresh_tokens
		 WHERE username = $1
		 `
	return r.scanRefresh(ctx, query, username)
}

func (r *PostgresRepository) FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	query :=
		`SELECT username, token, created_at, expires_at FROM refresh_tokens
		 WHERE token = $1
		 `
	return r.scanRefresh(ctx, query, token)
}

func (r *PostgresRepository) scanRefresh(ctx context.Context, query string, arg string) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.UserName, &t.Token, &t.CreatedAt, &t.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

// RotateRefresh relies on the row lock taken by UPDATE: a concurrent rotation
// of the same row re-evaluates the token predicate after the first commits
// and matches nothing.
func (r *PostgresRepository) RotateRefresh(ctx context.Context, username, presented string, next *models.RefreshToken) error {
	query :=
		`UPDATE refresh_tokens
		 SET token = $3, created_at = $4, expires_at = $5
		 WHERE username = $1 AND token = $2
		 `

	res, err := r.db.ExecContext(ctx, query, username, presented, next.Token, next.CreatedAt, next.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n != 1 {
		return common.ErrInvalidRefreshToken
	}

	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
