// Package auth issues and checks the credentials handed out by the server:
// salted password hashes, signed access tokens and opaque refresh tokens.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshTokenSize is the number of random bytes behind a refresh token.
const RefreshTokenSize = 64

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Claims are the access token claims: the registered set plus the identity
// name.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer mints HS512 access tokens and random refresh tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        Clock
	random     io.Reader
}

// NewIssuer constructs an Issuer. A nil clock means time.Now and a nil
// random source means crypto/rand.
func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration, now Clock, random io.Reader) *Issuer {
	if now == nil {
		now = time.Now
	}
	if random == nil {
		random = rand.Reader
	}
	return &Issuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
		random:     random,
	}
}

// Now exposes the issuer's clock so callers compare expiry against the same
// time source that stamped the token.
func (i *Issuer) Now() time.Time {
	return i.now()
}

// GenerateAccessToken signs a token for username that expires accessTTL
// after issuance. The returned time is the expiry as encoded in the token.
func (i *Issuer) GenerateAccessToken(username string) (string, time.Time, error) {
	now := i.now()
	claims := Claims{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, claims.ExpiresAt.Time, nil
}

// GenerateRefreshToken draws a new refresh token for username valid for
// refreshTTL.
func (i *Issuer) GenerateRefreshToken(username string) (*models.RefreshToken, error) {
	token, err := common.MakeRandBase64String(i.random, RefreshTokenSize)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	now := i.now()
	return &models.RefreshToken{
		UserName:  username,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(i.refreshTTL),
	}, nil
}

// ParseAccessToken verifies the signature and expiry of tokenString and
// returns its claims. Expired tokens yield common.ErrTokenExpired, anything
// else wraps common.ErrInvalidToken.
func (i *Issuer) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Name == "" {
		return nil, fmt.Errorf("%w: missing name claim", common.ErrInvalidToken)
	}

	return claims, nil
}
