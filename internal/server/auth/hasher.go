package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"golang.org/x/crypto/argon2"
)

// PasswordHasher produces and checks salted password hashes.
type PasswordHasher interface {
	// CreateHash draws a fresh salt and hashes password under it.
	CreateHash(password string) (hash, salt []byte, err error)

	// Verify recomputes the hash of password under salt and reports whether
	// it equals hash byte for byte.
	Verify(password string, hash, salt []byte) bool
}

// HMACSaltSize is the salt length of HMACHasher. The salt is used directly
// as the HMAC key, so it matches the SHA-512 block size.
const HMACSaltSize = 128

// HMACHasher computes HMAC-SHA-512(key=salt, msg=password).
type HMACHasher struct {
	random io.Reader
}

// NewHMACHasher returns a hasher drawing salts from random, or from
// crypto/rand when random is nil.
func NewHMACHasher(random io.Reader) *HMACHasher {
	if random == nil {
		random = rand.Reader
	}
	return &HMACHasher{random: random}
}

// CreateHash draws a HMACSaltSize-byte salt and returns the HMAC of password
// keyed with it.
func (h *HMACHasher) CreateHash(password string) ([]byte, []byte, error) {
	salt, err := common.ReadRandBytes(h.random, HMACSaltSize)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating salt: %w", err)
	}
	return hmacSHA512(password, salt), salt, nil
}

// Verify recomputes the HMAC under salt and compares it in constant time.
func (h *HMACHasher) Verify(password string, hash, salt []byte) bool {
	return hmac.Equal(hmacSHA512(password, salt), hash)
}

func hmacSHA512(password string, key []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// Argon2 parameters. The key length matches the HMAC-SHA-512 output so both
// hashers store values of the same shape.
const (
	Argon2SaltSize = 16
	argon2Time     = 1
	argon2Memory   = 64 * 1024
	argon2Threads  = 4
	argon2KeyLen   = 64
)

// Argon2Hasher derives the hash with argon2id.
type Argon2Hasher struct {
	random io.Reader
}

// NewArgon2Hasher returns a hasher drawing salts from random, or from
// crypto/rand when random is nil.
func NewArgon2Hasher(random io.Reader) *Argon2Hasher {
	if random == nil {
		random = rand.Reader
	}
	return &Argon2Hasher{random: random}
}

// CreateHash draws an Argon2SaltSize-byte salt and derives a 64-byte argon2id
// key from password.
func (h *Argon2Hasher) CreateHash(password string) ([]byte, []byte, error) {
	salt, err := common.ReadRandBytes(h.random, Argon2SaltSize)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating salt: %w", err)
	}
	return argon2Key(password, salt), salt, nil
}

// Verify re-derives the key under salt and compares it in constant time.
func (h *Argon2Hasher) Verify(password string, hash, salt []byte) bool {
	return subtle.ConstantTimeCompare(argon2Key(password, salt), hash) == 1
}

func argon2Key(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// NewPasswordHasher returns the hasher named by the configuration.
func NewPasswordHasher(name string, random io.Reader) (PasswordHasher, error) {
	switch name {
	case config.HasherHMACSHA512:
		return NewHMACHasher(random), nil
	case config.HasherArgon2ID:
		return NewArgon2Hasher(random), nil
	default:
		return nil, fmt.Errorf("%w: unknown password hasher %q", common.ErrConfiguration, name)
	}
}
