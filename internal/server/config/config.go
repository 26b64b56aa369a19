// Package config handles configuration for the server, including defaults,
// JSON overlay, environment variables, and command-line flags.
package config

import "time"

// Config holds runtime settings for the authentication server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP endpoint.
//   - DatabaseDSN: "memory", a SQLite file path, or a postgres:// URL.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the
//     development default in production.
//   - TokenValidityDuration: access token lifetime.
//   - MaxLoginAttempts: consecutive failures before an account locks.
//   - LockoutDuration: how long a locked account stays locked.
//   - CORSOrigins: allowed origins for cross-origin requests.
type Config struct {
	EndpointAddr          string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	MaxLoginAttempts      int
	LockoutDuration       time.Duration
	CORSOrigins           []string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = "users.db"
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 1 * time.Hour
	c.MaxLoginAttempts = 5
	c.LockoutDuration = 15 * time.Minute
	c.CORSOrigins = []string{"*"}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment, and command-line flags, in
// that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
