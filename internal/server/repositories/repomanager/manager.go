// Package repomanager builds the credential store selected by configuration:
// it opens the backend connection, prepares the schema and hands back a
// credentials.Repository that owns the connection.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
)

// New returns the credential store for cfg.StorageBackend. Closing the
// returned repository releases its connections.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (credentials.Repository, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		log.Info(ctx, "using in-memory credential store; state is lost on restart")
		return credentials.NewMemoryRepository(), nil
	case config.BackendPostgres:
		repo, err := NewPostgres(ctx, cfg.DatabaseDSN, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.BackendRedis:
		repo, err := NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrConfiguration, cfg.StorageBackend)
	}
}
