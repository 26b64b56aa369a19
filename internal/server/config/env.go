package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables, loading an
// optional .env file first. Unset variables leave the current value alone.
//
// Recognized variables: SERVER_ADDRESS, DATABASE_DSN, SECRET_KEY,
// TOKEN_VALIDITY, MAX_LOGIN_ATTEMPTS, LOCKOUT_DURATION,
// CORS_ALLOWED_ORIGINS (comma-separated).
func parseEnv(config *Config) {

	// a missing .env file is fine, the process environment still applies
	_ = godotenv.Load()

	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.TokenValidityDuration = d
		}
	}
	if v := os.Getenv("MAX_LOGIN_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxLoginAttempts = n
		}
	}
	if v := os.Getenv("LOCKOUT_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.LockoutDuration = d
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		config.CORSOrigins = parseCSV(v)
	}
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
