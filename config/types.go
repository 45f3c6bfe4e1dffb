package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Portal  PortalConfig  `mapstructure:"portal"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PortalConfig holds the portal credentials and client tuning
type PortalConfig struct {
	URL           string        `mapstructure:"url"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	AssetOwnerID  int           `mapstructure:"asset_owner_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// WatchConfig contains settings for the continuous status watcher
type WatchConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	RunImmediately bool          `mapstructure:"run_immediately"`
}

// FilterConfig contains named filter expressions for invoices and
// consumption records
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
