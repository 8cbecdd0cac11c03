// Package httpapi exposes the credential lifecycle over HTTP: JSON bodies,
// the refresh token in an HttpOnly cookie and the access token as a bearer
// header.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Options tune the transport. The zero value is usable.
type Options struct {
	// CookieSecure sets the Secure attribute on the refresh token cookie.
	CookieSecure bool
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
}

type HTTPServer struct {
	address string
	users   *services.UserService
	issuer  *auth.Issuer
	logger  logging.Logger
	opts    Options
	router  *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, issuer *auth.Issuer, opts Options) *HTTPServer {
	s := &HTTPServer{
		address: a,
		users:   us,
		issuer:  issuer,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
	s.router = s.newRouter()
	return s
}

// Handler returns the configured router.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}

	api := router.Group(common.AuthBasePath)
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.POST("/refresh-token", s.refreshToken)
	api.GET("", s.accessTokenMiddleware(), s.currentUser)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
