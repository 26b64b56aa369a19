package config

import (
	"encoding/json"
	"os"

	"github.com/ilepins/userauth/internal/flagx"
	"github.com/ilepins/userauth/internal/timex"
)

// JsonConfig is the DTO for JSON configuration files. Duration fields use
// timex.Duration, which accepts both strings such as "15m" and integer
// nanoseconds. Absent fields leave the current Config value in place.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	MaxLoginAttempts      int            `json:"max_login_attempts"`
	LockoutDuration       timex.Duration `json:"lockout_duration"`
	CORSOrigins           []string       `json:"cors_origins"`
}

// parseJson loads configuration from the file named by the -c/-config flags.
// If no file is named, nothing happens. Unreadable or invalid files panic:
// a requested config that cannot be applied is a startup error.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.MaxLoginAttempts != 0 {
		config.MaxLoginAttempts = c.MaxLoginAttempts
	}
	if c.LockoutDuration.Duration != 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if len(c.CORSOrigins) != 0 {
		config.CORSOrigins = c.CORSOrigins
	}
}
