// Package server wires the credential service together: storage backend,
// password hasher, token issuer, metrics and the HTTP endpoint. It also
// handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	repo       credentials.Repository
	httpServer *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	for _, w := range c.Warnings() {
		logger.Warn(ctx, w)
	}

	hasher, err := auth.NewPasswordHasher(c.PasswordHasher, rand.Reader)
	if err != nil {
		return nil, err
	}

	repo, err := repomanager.New(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	issuer := auth.NewIssuer([]byte(c.SecretKey), c.AccessTokenTTL(), c.RefreshTokenTTL(), nil, rand.Reader)
	prom := metrics.NewPrometheus()

	us := services.NewUserService(repo, hasher, issuer, c.RegistrationPolicy,
		logger.With("module", "user_service"), prom)

	hs := httpapi.NewHTTPServer(c.EndpointAddr, logger, us, issuer, httpapi.Options{
		CookieSecure: c.CookieSecure,
		Metrics:      prom.Handler(),
	})

	return &App{config: c, logger: logger, repo: repo, httpServer: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or the
// HTTP server fails. The storage backend is closed before returning.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"backend", app.config.StorageBackend,
		"hasher", app.config.PasswordHasher,
		"registration_policy", app.config.RegistrationPolicy,
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repo.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
