package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Credentials can come from the environment instead of the file
	v.SetEnvPrefix("FLOWERHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".flowerhub"))
		}

		// Check /etc
		v.AddConfigPath("/etc/flowerhub/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Portal defaults; an empty URL selects the production portal
	v.SetDefault("portal.url", "")
	v.SetDefault("portal.timeout", 10*time.Second)
	v.SetDefault("portal.retry_attempts", 3)
	v.SetDefault("portal.max_concurrent", 0)

	// Watch defaults
	v.SetDefault("watch.interval", 30*time.Second)
	v.SetDefault("watch.run_immediately", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Portal.Username == "" {
		return fmt.Errorf("portal.username is required")
	}

	if cfg.Portal.Password == "" || cfg.Portal.Password == "your-password-here" {
		return fmt.Errorf("portal.password must be set to the portal account password")
	}

	if cfg.Portal.Timeout < 0 {
		return fmt.Errorf("portal.timeout must not be negative")
	}

	if cfg.Portal.RetryAttempts < 0 {
		return fmt.Errorf("portal.retry_attempts must not be negative")
	}

	if cfg.Watch.Interval < 5*time.Second {
		return fmt.Errorf("watch.interval must be at least 5s, got %s", cfg.Watch.Interval)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
