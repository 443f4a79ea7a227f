// Package config loads and validates repodata service configuration.
package config

// Config represents the repodata service configuration
type Config struct {
	Database Database `mapstructure:"database"`
	Server   Server   `mapstructure:"server"`
	Ingest   Ingest   `mapstructure:"ingest"`
	GitHub   GitHub   `mapstructure:"github"`
	Announce Announce `mapstructure:"announce"`
	Registry Registry `mapstructure:"registry"`
}

// Database configures the SQLite database
type Database struct {
	Path string `mapstructure:"path"`
}

// Server configures the HTTP API
type Server struct {
	Port int `mapstructure:"port"`
}

// Ingest configures the ingestion pipeline: the fetch loop cadence, the
// retry budget, and the garbage collector sweeps.
type Ingest struct {
	// How long to wait before the next claim attempt after a claim that
	// found work (drain quickly) versus one that found nothing.
	PollIntervalMS     int `mapstructure:"poll_interval_ms"`
	IdlePollIntervalMS int `mapstructure:"idle_poll_interval_ms"`

	// Per-request exponential backoff base: a request with n failed
	// attempts becomes claimable again base*2^n after creation.
	RetryBackoffBaseSeconds int `mapstructure:"retry_backoff_base_seconds"`

	// Requests are discarded once they have been attempted this many times.
	MaxAttempts int `mapstructure:"max_attempts"`

	// Requests claimed longer ago than this are assumed stuck and released.
	MaxRunTimeMinutes int `mapstructure:"max_run_time_minutes"`

	// How often the garbage collector sweeps the queue.
	CollectorIntervalMinutes int `mapstructure:"collector_interval_minutes"`
}

// GitHub configures the source-host API client
type GitHub struct {
	Token          string  `mapstructure:"token"`
	APIBaseURL     string  `mapstructure:"api_base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
}

// Announce configures the release announcer. Announcements are disabled
// when the webhook URL is empty.
type Announce struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// Registry configures registry-wide normalization values
type Registry struct {
	// Support contact applied when a manifest declares none. A version
	// whose contact resolves to this address is considered maintained by
	// the registry team.
	DefaultSupportEmail string `mapstructure:"default_support_email"`

	// Chat channel applied alongside the default support email.
	DefaultSupportChannel string `mapstructure:"default_support_channel"`

	// Base URL of the demo build service used for computed demo URLs.
	DemoServiceURL string `mapstructure:"demo_service_url"`
}
