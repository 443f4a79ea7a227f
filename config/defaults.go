package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "repodata.db")

	// Server defaults
	v.SetDefault("server.port", 8080)

	// Ingestion pipeline defaults
	v.SetDefault("ingest.poll_interval_ms", 100)            // drain the queue quickly after a hit
	v.SetDefault("ingest.idle_poll_interval_ms", 30000)     // 30s between claims when idle
	v.SetDefault("ingest.retry_backoff_base_seconds", 60)   // eligibility = created + 60s*2^attempts
	v.SetDefault("ingest.max_attempts", 10)                 // discard after 10 failed attempts
	v.SetDefault("ingest.max_run_time_minutes", 15)         // release claims older than 15 minutes
	v.SetDefault("ingest.collector_interval_minutes", 15)   // garbage collector period

	// GitHub client defaults
	v.SetDefault("github.api_base_url", "https://api.github.com")
	v.SetDefault("github.timeout_seconds", 30)
	v.SetDefault("github.requests_per_sec", 5.0)

	// Registry defaults
	v.SetDefault("registry.default_support_email", "components.support@example.com")
	v.SetDefault("registry.default_support_channel", "componentize/components")
	v.SetDefault("registry.demo_service_url", "https://build.componentize.dev/v2/demos")
}
