package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/projectgate/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-g", "-t", "-p", "-r", "-l"}

// parseFlags overlays values from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-g string   signing algorithm (HS256, HS384, HS512)
//	-t int      access token validity, minutes
//	-p string   password hash scheme (bcrypt, argon2id)
//	-r string   Redis URL for the token denylist
//	-l string   log level
//
// Unknown flags are filtered out first so the -c/-config file flag and any
// flags owned by other components do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.Algorithm, "g", config.Algorithm, "token signing algorithm")
	ttl := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.PasswordHashScheme, "p", config.PasswordHashScheme, "password hash scheme")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Only touch the duration when -t was given, so sub-minute values from
	// the file or env survive.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*ttl) * time.Minute
		}
	})
	return nil
}
