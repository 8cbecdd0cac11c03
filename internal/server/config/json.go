package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish an
// absent key from a zero value so a file only overrides what it names.
type JsonConfig struct {
	EndpointAddr           *string `json:"endpoint_addr"`
	SecretKey              *string `json:"secret_key"`
	AccessTokenTTLMinutes  *int    `json:"access_token_ttl_minutes"`
	RefreshTokenTTLMinutes *int    `json:"refresh_token_ttl_minutes"`
	StorageBackend         *string `json:"storage_backend"`
	DatabaseDSN            *string `json:"database_dsn"`
	RedisAddr              *string `json:"redis_addr"`
	RedisPassword          *string `json:"redis_password"`
	RedisDB                *int    `json:"redis_db"`
	PasswordHasher         *string `json:"password_hasher"`
	RegistrationPolicy     *string `json:"registration_policy"`
	CookieSecure           *bool   `json:"cookie_secure"`
	LogLevel               *string `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $GOPHAUTH_CONFIG) onto config. No file means no changes. A TTL written as
// a string or a fraction fails to decode, which surfaces as a configuration
// error at startup.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	set(&config.EndpointAddr, c.EndpointAddr)
	set(&config.SecretKey, c.SecretKey)
	set(&config.AccessTokenTTLMinutes, c.AccessTokenTTLMinutes)
	set(&config.RefreshTokenTTLMinutes, c.RefreshTokenTTLMinutes)
	set(&config.StorageBackend, c.StorageBackend)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.RedisDB, c.RedisDB)
	set(&config.PasswordHasher, c.PasswordHasher)
	set(&config.RegistrationPolicy, c.RegistrationPolicy)
	set(&config.CookieSecure, c.CookieSecure)
	set(&config.LogLevel, c.LogLevel)

	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
