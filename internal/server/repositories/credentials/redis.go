package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "gophauth:"

	fieldID               = "id"
	fieldUserName         = "username"
	fieldPasswordHash     = "password_hash"
	fieldPasswordSalt     = "password_salt"
	fieldCreatedAt        = "created_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshCreatedAt = "refresh_created_at"
	fieldRefreshExpiresAt = "refresh_expires_at"

	// optimistic transaction attempts before giving up on a busy identity
	maxWatchRetries = 8
)

// RedisRepository keeps one hash per identity (user fields plus the active
// refresh token) and a plain key per active refresh token pointing back to
// its owner. Writes to an identity run as WATCH/MULTI transactions on its
// hash.
type RedisRepository struct {
	client redis.UniversalClient
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func userKey(username string) string {
	return redisKeyPrefix + "user:" + username
}

func refreshKey(token string) string {
	return redisKeyPrefix + "refresh:" + token
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// watch runs fn as an optimistic transaction on key, retrying while another
// client modifies the key between WATCH and EXEC.
func (r *RedisRepository) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis error: %w: too many concurrent writers on %s", common.ErrorInternal, key)
}

// wrap passes store sentinels through and annotates everything else.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrInvalidRefreshToken),
		errors.Is(err, common.ErrorInternal):
		return err
	default:
		return fmt.Errorf("redis error: %w", err)
	}
}

func userFields(user *models.User) map[string]any {
	return map[string]any{
		fieldID:           user.ID,
		fieldUserName:     user.UserName,
		fieldPasswordHash: user.PasswordHash,
		fieldPasswordSalt: user.PasswordSalt,
		fieldCreatedAt:    formatTime(user.CreatedAt),
	}
}

func refreshFields(token *models.RefreshToken) map[string]any {
	return map[string]any{
		fieldRefreshToken:     token.Token,
		fieldRefreshCreatedAt: formatTime(token.CreatedAt),
		fieldRefreshExpiresAt: formatTime(token.ExpiresAt),
	}
}

// currentToken returns the active refresh token value stored in the hash,
// or "" when there is none.
func currentToken(ctx context.Context, tx *redis.Tx, key string) (string, error) {
	token, err := tx.HGet(ctx, key, fieldRefreshToken).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (r *RedisRepository) Save(ctx context.Context, user *models.User) error {
	key := userKey(user.UserName)

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		old, err := currentToken(ctx, tx, key)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, userFields(user))
			if old != "" {
				pipe.Del(ctx, refreshKey(old))
			}
			return nil
		})
		return err
	})

	return wrap(err)
}

func (r *RedisRepository) Create(ctx context.Context, user *models.User) error {
	key := userKey(user.UserName)

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return common.ErrorAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, userFields(user))
			return nil
		})
		return err
	})

	return wrap(err)
}

func (r *RedisRepository) Find(ctx context.Context, username string) (*models.User, error) {
	values, err := r.client.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, wrap(err)
	}
	if len(values) == 0 {
		return nil, common.ErrorNotFound
	}

	createdAt, err := parseTime(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("redis error: corrupt %s of %q: %w", fieldCreatedAt, username, err)
	}

	return &models.User{
		ID:           values[fieldID],
		UserName:     values[fieldUserName],
		PasswordHash: []byte(values[fieldPasswordHash]),
		PasswordSalt: []byte(values[fieldPasswordSalt]),
		CreatedAt:    createdAt,
	}, nil
}

func (r *RedisRepository) AttachRefresh(ctx context.Context, username, userID string, token *models.RefreshToken) error {
	key := userKey(username)

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		id, err := tx.HGet(ctx, key, fieldID).Result()
		if errors.Is(err, redis.Nil) {
			return common.ErrorNotFound
		}
		if err != nil {
			return err
		}
		if id != userID {
			return common.ErrorNotFound
		}

		old, err := currentToken(ctx, tx, key)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.pipeReplace(ctx, pipe, key, username, old, token)
			return nil
		})
		return err
	})

	return wrap(err)
}

func (r *RedisRepository) pipeReplace(ctx context.Context, pipe redis.Pipeliner, key, username, old string, next *models.RefreshToken) {
	pipe.HSet(ctx, key, refreshFields(next))
	if old != "" && old != next.Token {
		pipe.Del(ctx, refreshKey(old))
	}
	pipe.Set(ctx, refreshKey(next.Token), username, 0)
}

func (r *RedisRepository) CurrentRefresh(ctx context.Context, username string) (*models.RefreshToken, error) {
	values, err := r.client.HMGet(ctx, userKey(username),
		fieldRefreshToken, fieldRefreshCreatedAt, fieldRefreshExpiresAt).Result()
	if err != nil {
		return nil, wrap(err)
	}

	token, _ := values[0].(string)
	if token == "" {
		return nil, common.ErrorNotFound
	}
	created, _ := values[1].(string)
	expires, _ := values[2].(string)

	t := &models.RefreshToken{UserName: username, Token: token}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("redis error: corrupt %s of %q: %w", fieldRefreshCreatedAt, username, err)
	}
	if t.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, fmt.Errorf("redis error: corrupt %s of %q: %w", fieldRefreshExpiresAt, username, err)
	}

	return t, nil
}

func (r *RedisRepository) FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	username, err := r.client.Get(ctx, refreshKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, wrap(err)
	}

	// A stale index entry can outlive a rotation only if a write failed
	// halfway; the hash is authoritative.
	current, err := r.CurrentRefresh(ctx, username)
	if err != nil {
		return nil, err
	}
	if current.Token != token {
		return nil, common.ErrorNotFound
	}
	return current, nil
}

func (r *RedisRepository) RotateRefresh(ctx context.Context, username, presented string, next *models.RefreshToken) error {
	key := userKey(username)

	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		old, err := currentToken(ctx, tx, key)
		if err != nil {
			return err
		}
		if old == "" || old != presented {
			return common.ErrInvalidRefreshToken
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.pipeReplace(ctx, pipe, key, username, old, next)
			return nil
		})
		return err
	})

	return wrap(err)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
