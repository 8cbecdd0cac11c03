// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, refresh token rotation and
// reading the identity behind a verified access token.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and the refresh token that
// the transport hands to the client out of band.
type TokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    *models.RefreshToken
}

// UserService provides authentication-related operations:
//   - Register: create or overwrite identities
//   - Login: verify credentials and mint tokens
//   - RefreshToken: rotate refresh tokens and mint new access tokens
//   - CurrentUser: read the identity from verified access token claims
type UserService struct {
	repo    credentials.Repository
	hasher  auth.PasswordHasher
	issuer  *auth.Issuer
	policy  string
	log     logging.Logger
	metrics metrics.Recorder
}

// NewUserService wires the service. A nil recorder disables metrics.
func NewUserService(
	repo credentials.Repository,
	hasher auth.PasswordHasher,
	issuer *auth.Issuer,
	policy string,
	log logging.Logger,
	rec metrics.Recorder,
) *UserService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if policy == "" {
		policy = config.PolicyOverwrite
	}
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		issuer:  issuer,
		policy:  policy,
		log:     log,
		metrics: rec,
	}
}

// Register stores username with a freshly salted hash of password. Under the
// overwrite policy an existing identity is replaced wholesale and its refresh
// token cleared; under the reject policy a taken username yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.Identity, error) {
	if username == "" || password == "" {
		s.metrics.Register(metrics.ResultRejected)
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, salt, err := s.hasher.CreateHash(password)
	if err != nil {
		s.metrics.Register(metrics.ResultError)
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    s.issuer.Now(),
	}

	if s.policy == config.PolicyReject {
		err = s.repo.Create(ctx, user)
	} else {
		err = s.repo.Save(ctx, user)
	}
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.metrics.Register(metrics.ResultRejected)
			return nil, err
		}
		s.metrics.Register(metrics.ResultError)
		return nil, fmt.Errorf("error saving user: %w", err)
	}

	s.metrics.Register(metrics.ResultOK)
	s.log.Info(ctx, "user registered", "username", username, "id", user.ID)
	return user.Identity(), nil
}

// Login verifies password against the stored hash and, on success, issues a
// new token pair and makes its refresh token the identity's only active one.
// A failed login leaves the store untouched. A login that verified the
// password of an identity re-registered before its token could be attached
// fails with common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repo.Find(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.Login(metrics.ResultRejected)
			return nil, common.ErrorNotFound
		}
		s.metrics.Login(metrics.ResultError)
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		s.metrics.Login(metrics.ResultRejected)
		s.log.Info(ctx, "wrong password", "username", username)
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(user.UserName)
	if err != nil {
		s.metrics.Login(metrics.ResultError)
		return nil, err
	}

	if err := s.repo.AttachRefresh(ctx, user.UserName, user.ID, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// re-registered since Find: the verified password is no longer
			// the identity's password
			s.metrics.Login(metrics.ResultRejected)
			s.log.Info(ctx, "identity replaced during login", "username", username)
			return nil, common.ErrInvalidCredentials
		}
		s.metrics.Login(metrics.ResultError)
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	s.metrics.Login(metrics.ResultOK)
	s.logIssued(ctx, "login", pair)
	return pair, nil
}

// RefreshToken exchanges a presented refresh token for a new pair. The
// presented token is consumed: of several concurrent calls with the same
// token at most one succeeds, the rest get common.ErrInvalidRefreshToken.
// A matching token past its expiry yields common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		s.metrics.Refresh(metrics.ResultRejected)
		return nil, common.ErrInvalidRefreshToken
	}

	current, err := s.repo.FindRefresh(ctx, presented)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.Refresh(metrics.ResultRejected)
			return nil, common.ErrInvalidRefreshToken
		}
		s.metrics.Refresh(metrics.ResultError)
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if current.IsExpired(s.issuer.Now()) {
		s.metrics.Refresh(metrics.ResultExpired)
		return nil, common.ErrRefreshTokenExpired
	}

	pair, err := s.generateTokenPair(current.UserName)
	if err != nil {
		s.metrics.Refresh(metrics.ResultError)
		return nil, err
	}

	if err := s.repo.RotateRefresh(ctx, current.UserName, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrInvalidRefreshToken) {
			s.metrics.Refresh(metrics.ResultRejected)
			return nil, common.ErrInvalidRefreshToken
		}
		s.metrics.Refresh(metrics.ResultError)
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}

	s.metrics.Refresh(metrics.ResultOK)
	s.logIssued(ctx, "refresh", pair)
	return pair, nil
}

// CurrentUser returns the identity name carried by already verified access
// token claims.
func (s *UserService) CurrentUser(claims *auth.Claims) (string, error) {
	if claims == nil || claims.Name == "" {
		return "", common.ErrorUnauthenticated
	}
	return claims.Name, nil
}

// --- helpers below ---

func (s *UserService) generateTokenPair(username string) (*TokenPair, error) {
	access, expiresAt, err := s.issuer.GenerateAccessToken(username)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := s.issuer.GenerateRefreshToken(username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, AccessExpiresAt: expiresAt, RefreshToken: refresh}, nil
}

func (s *UserService) logIssued(ctx context.Context, via string, pair *TokenPair) {
	s.log.Debug(ctx, "refresh token issued",
		"via", via,
		"username", pair.RefreshToken.UserName,
		"created_at", pair.RefreshToken.CreatedAt,
		"expires_at", pair.RefreshToken.ExpiresAt,
		"access_expires_at", pair.AccessExpiresAt,
	)
}
