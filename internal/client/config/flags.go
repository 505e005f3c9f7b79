package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the authbridge server
//	-f string   provider frontend API URL
//	-s string   state directory
//	-m int      max migration polling retries
//	-i int      request timeout (in seconds)
//	-l string   log level
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-s", "-m", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "authbridge server URL")
	fs.StringVar(&cfg.FrontendAPIURL, "f", cfg.FrontendAPIURL, "provider frontend API URL")
	fs.StringVar(&cfg.StateDir, "s", cfg.StateDir, "state directory")
	fs.IntVar(&cfg.MaxRetries, "m", cfg.MaxRetries, "max migration polling retries")
	requestTimeout := fs.Int("i", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
