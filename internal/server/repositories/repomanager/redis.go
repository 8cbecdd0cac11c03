package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
	"github.com/redis/go-redis/v9"
)

// NewRedis connects to the Redis server at addr and returns a Redis-backed
// credential store.
func NewRedis(ctx context.Context, addr, password string, db int, log logging.Logger) (*credentials.RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info(ctx, "redis credential store ready", "addr", addr, "db", db)
	return credentials.NewRedisRepository(client), nil
}
