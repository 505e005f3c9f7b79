package config

import "github.com/dmitrijs2005/authbridge/internal/flagx"

// parseEnv overlays Config with environment variables. The names of the
// deployment-facing variables match what the hosting platform provisions.
// Unparsable numeric/boolean values panic, like invalid JSON config does.
func parseEnv(c *Config) {
	flagx.EnvString(&c.EndpointAddrHTTP, "APP_ADDR")
	flagx.EnvString(&c.DatabaseDSN, "DATABASE_URL")
	flagx.EnvString(&c.RedisURL, "UPSTASH_REDIS_REST_URL")
	flagx.EnvString(&c.RedisToken, "UPSTASH_REDIS_REST_TOKEN")
	flagx.EnvString(&c.QStashCurrentSigningKey, "QSTASH_CURRENT_SIGNING_KEY")
	flagx.EnvString(&c.QStashNextSigningKey, "QSTASH_NEXT_SIGNING_KEY")
	flagx.EnvString(&c.WebhookURL, "WEBHOOK_URL")
	flagx.EnvString(&c.ProviderAPIURL, "CLERK_API_URL")
	flagx.EnvString(&c.ProviderSecretKey, "CLERK_SECRET_KEY")
	flagx.EnvString(&c.ProviderJWTKey, "CLERK_JWT_KEY")
	flagx.EnvString(&c.ProfileURL, "PROFILE_URL")
	flagx.EnvString(&c.LogLevel, "LOG_LEVEL")
	flagx.EnvString(&c.S3RootUser, "S3_ROOT_USER")
	flagx.EnvString(&c.S3RootPassword, "S3_ROOT_PASSWORD")
	flagx.EnvString(&c.S3Bucket, "S3_BUCKET")
	flagx.EnvString(&c.S3Region, "S3_REGION")
	flagx.EnvString(&c.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	flagx.EnvString(&c.S3Prefix, "S3_PREFIX")

	for _, err := range []error{
		flagx.EnvDuration(&c.LegacySessionValidityDuration, "LEGACY_SESSION_TTL"),
		flagx.EnvInt(&c.BatchSize, "BATCH_SIZE"),
		flagx.EnvBool(&c.MaintenanceEnabled, "MAINTENANCE_ENABLED"),
		flagx.EnvBool(&c.SecureCookies, "SECURE_COOKIES"),
	} {
		if err != nil {
			panic(err)
		}
	}
}
