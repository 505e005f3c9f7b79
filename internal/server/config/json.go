package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
	"github.com/dmitrijs2005/authbridge/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "720h" and integer nanoseconds are accepted. Only fields present in
// the file overwrite the target Config.
type JsonConfig struct {
	EndpointAddrHTTP              *string         `json:"endpoint_addr_http"`
	DatabaseDSN                   *string         `json:"database_dsn"`
	RedisURL                      *string         `json:"redis_url"`
	RedisToken                    *string         `json:"redis_token"`
	QStashCurrentSigningKey       *string         `json:"qstash_current_signing_key"`
	QStashNextSigningKey          *string         `json:"qstash_next_signing_key"`
	WebhookURL                    *string         `json:"webhook_url"`
	ProviderAPIURL                *string         `json:"provider_api_url"`
	ProviderSecretKey             *string         `json:"provider_secret_key"`
	ProviderJWTKey                *string         `json:"provider_jwt_key"`
	ProfileURL                    *string         `json:"profile_url"`
	LegacySessionValidityDuration *timex.Duration `json:"legacy_session_validity_duration"`
	BatchSize                     *int            `json:"batch_size"`
	MaintenanceEnabled            *bool           `json:"maintenance_enabled"`
	SecureCookies                 *bool           `json:"secure_cookies"`
	LogLevel                      *string         `json:"log_level"`
	S3RootUser                    *string         `json:"s3_root_user"`
	S3RootPassword                *string         `json:"s3_root_password"`
	S3Bucket                      *string         `json:"s3_bucket"`
	S3Region                      *string         `json:"s3_region"`
	S3BaseEndpoint                *string         `json:"s3_base_endpoint"`
	S3Prefix                      *string         `json:"s3_prefix"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.RedisToken, c.RedisToken)
	setString(&config.QStashCurrentSigningKey, c.QStashCurrentSigningKey)
	setString(&config.QStashNextSigningKey, c.QStashNextSigningKey)
	setString(&config.WebhookURL, c.WebhookURL)
	setString(&config.ProviderAPIURL, c.ProviderAPIURL)
	setString(&config.ProviderSecretKey, c.ProviderSecretKey)
	setString(&config.ProviderJWTKey, c.ProviderJWTKey)
	setString(&config.ProfileURL, c.ProfileURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)

	if c.LegacySessionValidityDuration != nil {
		config.LegacySessionValidityDuration = c.LegacySessionValidityDuration.Duration
	}
	if c.BatchSize != nil {
		config.BatchSize = *c.BatchSize
	}
	if c.MaintenanceEnabled != nil {
		config.MaintenanceEnabled = *c.MaintenanceEnabled
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
