package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/projectgate/internal/flagx"
)

// parseFlags only looks at -a and -t, so the config file flags and anything
// else in args are left alone.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-t"})

	fs := flag.NewFlagSet("projectgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the projectgate server")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(filtered); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
