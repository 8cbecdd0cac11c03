package config

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 5, c.AccessTokenTTLMinutes)
	assert.Equal(t, 60*24*7, c.RefreshTokenTTLMinutes)
	assert.Equal(t, BackendMemory, c.StorageBackend)
	assert.Equal(t, HasherHMACSHA512, c.PasswordHasher)
	assert.Equal(t, PolicyOverwrite, c.RegistrationPolicy)
	assert.Equal(t, "info", c.LogLevel)
	assert.NotEmpty(t, c.SecretKey)
	require.NoError(t, c.Validate())
}

func TestTTLDurations(t *testing.T) {
	c := &Config{AccessTokenTTLMinutes: 2, RefreshTokenTTLMinutes: 90}
	assert.Equal(t, 2*time.Minute, c.AccessTokenTTL())
	assert.Equal(t, 90*time.Minute, c.RefreshTokenTTL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, ok: true},
		{name: "zero refresh ttl", mutate: func(c *Config) { c.RefreshTokenTTLMinutes = 0 }},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.RefreshTokenTTLMinutes = -1 }},
		{name: "zero access ttl", mutate: func(c *Config) { c.AccessTokenTTLMinutes = 0 }},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "mongo" }},
		{name: "postgres without dsn", mutate: func(c *Config) {
			c.StorageBackend = BackendPostgres
			c.DatabaseDSN = ""
		}},
		{name: "postgres with dsn", mutate: func(c *Config) { c.StorageBackend = BackendPostgres }, ok: true},
		{name: "redis without addr", mutate: func(c *Config) {
			c.StorageBackend = BackendRedis
			c.RedisAddr = ""
		}},
		{name: "redis with addr", mutate: func(c *Config) { c.StorageBackend = BackendRedis }, ok: true},
		{name: "argon2id hasher", mutate: func(c *Config) { c.PasswordHasher = HasherArgon2ID }, ok: true},
		{name: "unknown hasher", mutate: func(c *Config) { c.PasswordHasher = "md5" }},
		{name: "reject policy", mutate: func(c *Config) { c.RegistrationPolicy = PolicyReject }, ok: true},
		{name: "unknown policy", mutate: func(c *Config) { c.RegistrationPolicy = "merge" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}

func TestWarnings(t *testing.T) {
	c := validConfig()
	c.StorageBackend = BackendRedis
	c.SecretKey = "short"
	w := c.Warnings()
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "secret key is 5 bytes")

	c.SecretKey = string(make([]byte, RecommendedSecretLength))
	assert.Empty(t, c.Warnings())

	c.StorageBackend = BackendMemory
	assert.Len(t, c.Warnings(), 1)
}

func TestLoadConfig_ZeroRefreshTTLIsFatal(t *testing.T) {
	t.Setenv("GOPHAUTH_CONFIG", "")

	_, err := loadConfig([]string{"-r", "0"})
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestLoadConfig_UnparsableTTLIsFatal(t *testing.T) {
	t.Setenv("GOPHAUTH_CONFIG", "")

	_, err := loadConfig([]string{"-t", "five"})
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestLoadConfig_UsesDefaultsWithoutArgs(t *testing.T) {
	t.Setenv("GOPHAUTH_CONFIG", "")

	c, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, validConfig(), c)
}
