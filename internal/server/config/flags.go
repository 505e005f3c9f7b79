package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis / Upstash URL
//	-k string   provider secret key
//	-w string   public batch webhook URL
//	-t int      legacy session validity, hours
//	-n int      batch size
//	-l string   log level
//	-b string   S3 bucket for import reports
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and flags of
// other components do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-k", "-w", "-t", "-n", "-l", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.ProviderSecretKey, "k", config.ProviderSecretKey, "identity provider secret key")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "public batch webhook URL")

	sessionValidity := fs.Int("t", int(config.LegacySessionValidityDuration.Hours()), "legacy session validity (in hours)")

	fs.IntVar(&config.BatchSize, "n", config.BatchSize, "batch import size")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for import reports")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.LegacySessionValidityDuration = time.Duration(*sessionValidity) * time.Hour
}
