package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var flagNames = []string{
	"-a", "-s", "-t", "-r", "-b", "-d", "-ra", "-rp", "-rd", "-ph", "-rg", "-cs", "-l",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   HMAC secret key for access tokens
//	-t int      access token ttl, minutes
//	-r int      refresh token ttl, minutes
//	-b string   storage backend: memory, postgres, redis
//	-d string   PostgreSQL DSN
//	-ra string  Redis address
//	-rp string  Redis password
//	-rd int     Redis database number
//	-ph string  password hasher: hmac-sha512, argon2id
//	-rg string  registration policy: overwrite, reject
//	-cs bool    mark the refresh token cookie Secure
//	-l string   log level
//
// Arguments are filtered with flagx.FilterArgs first so flags owned by other
// components (-c/-config) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.AccessTokenTTLMinutes, "t", config.AccessTokenTTLMinutes, "access token ttl (in minutes)")
	fs.IntVar(&config.RefreshTokenTTLMinutes, "r", config.RefreshTokenTTLMinutes, "refresh token ttl (in minutes)")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "ra", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "rp", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "rd", config.RedisDB, "redis database")
	fs.StringVar(&config.PasswordHasher, "ph", config.PasswordHasher, "password hasher")
	fs.StringVar(&config.RegistrationPolicy, "rg", config.RegistrationPolicy, "registration policy")
	fs.BoolVar(&config.CookieSecure, "cs", config.CookieSecure, "secure refresh token cookie")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, flagNames))
}
