package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilepins/userauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   database DSN ("memory", a SQLite path, or postgres:// URL)
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-m int      max consecutive failed logins before lockout
//	-l int      lockout duration, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "max failed logins before lockout")
	lockout := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.LockoutDuration = time.Duration(*lockout) * time.Minute
}
