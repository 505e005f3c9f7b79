package config

import "time"

// Config holds runtime settings for the authbridge CLI.
//
// Fields:
//   - ServerURL: base URL of the authbridge server.
//   - FrontendAPIURL: provider frontend API used to redeem sign-in tickets.
//   - StateDir: directory (relative to the working directory) holding the
//     local state database.
//   - MaxRetries / InitialInterval / MaxInterval: migration polling backoff.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL       string
	FrontendAPIURL  string
	StateDir        string
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	RequestTimeout  time.Duration
	LogLevel        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.FrontendAPIURL = ""
	c.StateDir = ".authbridge"
	c.MaxRetries = 100
	c.InitialInterval = 500 * time.Millisecond
	c.MaxInterval = 30 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
