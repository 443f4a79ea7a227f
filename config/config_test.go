package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	// Create isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "repodata.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Ingest.PollInterval())
	assert.Equal(t, 30*time.Second, cfg.Ingest.IdlePollInterval())
	assert.Equal(t, time.Minute, cfg.Ingest.RetryBackoffBase())
	assert.Equal(t, 15*time.Minute, cfg.Ingest.MaxRunTime())
	assert.Equal(t, 15*time.Minute, cfg.Ingest.CollectorInterval())
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.GitHub.Timeout())
	assert.NotEmpty(t, cfg.Registry.DefaultSupportEmail)
	assert.NotEmpty(t, cfg.Registry.DemoServiceURL)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("ingest.max_attempts", 3)
	v.Set("ingest.retry_backoff_base_seconds", 5)
	v.Set("github.token", "ghp_test")

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Ingest.RetryBackoffBase())
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/repodata.toml")
	assert.Error(t, err)
}
