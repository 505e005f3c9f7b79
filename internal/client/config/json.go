package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
	"github.com/dmitrijs2005/authbridge/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "3s" or integer nanoseconds. Absent fields keep their
// current value.
type JsonConfig struct {
	ServerURL       *string         `json:"server_url"`
	FrontendAPIURL  *string         `json:"frontend_api_url"`
	StateDir        *string         `json:"state_dir"`
	MaxRetries      *int            `json:"max_retries"`
	InitialInterval *timex.Duration `json:"initial_interval"`
	MaxInterval     *timex.Duration `json:"max_interval"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	LogLevel        *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.FrontendAPIURL != nil {
		cfg.FrontendAPIURL = *jc.FrontendAPIURL
	}
	if jc.StateDir != nil {
		cfg.StateDir = *jc.StateDir
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.InitialInterval != nil {
		cfg.InitialInterval = jc.InitialInterval.Duration
	}
	if jc.MaxInterval != nil {
		cfg.MaxInterval = jc.MaxInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
