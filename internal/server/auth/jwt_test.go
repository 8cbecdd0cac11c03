package auth

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestIssuer(secret string, clock *fakeClock) *Issuer {
	return NewIssuer([]byte(secret), 5*time.Minute, 60*time.Minute, clock.Now, nil)
}

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer("super-secret", clock)

	tok, exp, err := issuer.GenerateAccessToken("alice")
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(5*time.Minute), exp)

	claims, err := issuer.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, claims.IssuedAt.Add(5*time.Minute), claims.ExpiresAt.Time)
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer("secret", clock)

	tok, _, err := issuer.GenerateAccessToken("u1")
	require.NoError(t, err)

	clock.Advance(5*time.Minute - time.Second)
	_, err = issuer.ParseAccessToken(tok)
	require.NoError(t, err, "token is valid until its expiry")

	clock.Advance(2 * time.Second)
	_, err = issuer.ParseAccessToken(tok)
	assert.True(t, errors.Is(err, common.ErrTokenExpired), "got %v", err)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	tok, _, err := newTestIssuer("right-secret", clock).GenerateAccessToken("u2")
	require.NoError(t, err)

	_, err = newTestIssuer("wrong-secret", clock).ParseAccessToken(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseAccessToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := newTestIssuer("k", &fakeClock{t: time.Now()}).ParseAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	claims := Claims{
		Name: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = newTestIssuer("k", clock).ParseAccessToken(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseAccessToken_RequiresNameAndExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}

	noName, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = newTestIssuer("k", clock).ParseAccessToken(noName)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Name: "alice"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = newTestIssuer("k", clock).ParseAccessToken(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGenerateRefreshToken(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer("k", clock)

	a, err := issuer.GenerateRefreshToken("alice")
	require.NoError(t, err)
	b, err := issuer.GenerateRefreshToken("alice")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(a.Token)
	require.NoError(t, err)
	assert.Len(t, raw, RefreshTokenSize)
	assert.NotEqual(t, a.Token, b.Token)

	assert.Equal(t, "alice", a.UserName)
	assert.Equal(t, clock.t, a.CreatedAt)
	assert.Equal(t, clock.t.Add(60*time.Minute), a.ExpiresAt)
	assert.True(t, a.ExpiresAt.After(a.CreatedAt))
}

func TestGenerateRefreshToken_RandomSourceFailure(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("k"), time.Minute, time.Minute, nil, bytes.NewReader(nil))
	_, err := issuer.GenerateRefreshToken("alice")
	assert.Error(t, err)
}
