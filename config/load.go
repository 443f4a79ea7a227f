package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/componentize/repodata/errors"
)

// Load reads the repodata configuration using Viper. Configuration is read
// from repodata.toml in the working directory when present, with REPODATA_*
// environment variables taking precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("repodata")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("REPODATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", configPath)
	}

	return LoadWithViper(v)
}

// PollInterval returns the short poll interval as a duration
func (c Ingest) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// IdlePollInterval returns the idle poll interval as a duration
func (c Ingest) IdlePollInterval() time.Duration {
	return time.Duration(c.IdlePollIntervalMS) * time.Millisecond
}

// RetryBackoffBase returns the exponential backoff base as a duration
func (c Ingest) RetryBackoffBase() time.Duration {
	return time.Duration(c.RetryBackoffBaseSeconds) * time.Second
}

// MaxRunTime returns the stuck-claim ceiling as a duration
func (c Ingest) MaxRunTime() time.Duration {
	return time.Duration(c.MaxRunTimeMinutes) * time.Minute
}

// CollectorInterval returns the garbage collector period as a duration
func (c Ingest) CollectorInterval() time.Duration {
	return time.Duration(c.CollectorIntervalMinutes) * time.Minute
}

// Timeout returns the per-request source fetch timeout as a duration
func (c GitHub) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
