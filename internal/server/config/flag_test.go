package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-s", "secret", "-t", "1", "-r", "3",
				"-b", "redis", "-d", "db", "-ra", "redis:6379", "-rp", "pw", "-rd", "2",
				"-ph", "argon2id", "-rg", "reject", "-cs=true", "-l", "debug",
			},
			expected: &Config{
				EndpointAddr:           "127.0.0.1:9090",
				SecretKey:              "secret",
				AccessTokenTTLMinutes:  1,
				RefreshTokenTTLMinutes: 3,
				StorageBackend:         "redis",
				DatabaseDSN:            "db",
				RedisAddr:              "redis:6379",
				RedisPassword:          "pw",
				RedisDB:                2,
				PasswordHasher:         "argon2id",
				RegistrationPolicy:     "reject",
				CookieSecure:           true,
				LogLevel:               "debug",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "conf.json", "-x", "1", "-t", "7"},
			expected: &Config{AccessTokenTTLMinutes: 7},
		},
		{
			name:    "non-numeric ttl",
			args:    []string{"-r", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
