// Package config loads server configuration from a config file, environment
// variables, and defaults, layered the way the teacher's cobra/viper CLI
// does it.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the kv-storage server.
type Config struct {
	// Server settings
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Wire protocol limits, per spec.md §4.2
	MaxMsg  int `mapstructure:"max_msg"`
	MaxArgs int `mapstructure:"max_args"`

	// Sorted set
	SkipListMaxLevel int `mapstructure:"skiplist_max_level"`

	// Event loop
	PollTimeout time.Duration `mapstructure:"poll_timeout"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Persistence
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Host:             "0.0.0.0",
		Port:             1234,
		MaxMsg:           4096,
		MaxArgs:          1024,
		SkipListMaxLevel: 18,
		PollTimeout:      5000 * time.Millisecond,
		LogLevel:         "info",
		LogFormat:        "json",
		SnapshotPath:     "./kv-storage.snapshot",
	}
}

// Load loads configuration from environment variables, a config file, and
// defaults, in that order of precedence.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("kv-storage")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/kv-storage/")
	viper.AddConfigPath("$HOME/.kv-storage")

	viper.SetEnvPrefix("KV_STORAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("max_msg", cfg.MaxMsg)
	viper.SetDefault("max_args", cfg.MaxArgs)
	viper.SetDefault("skiplist_max_level", cfg.SkipListMaxLevel)
	viper.SetDefault("poll_timeout", cfg.PollTimeout)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_format", cfg.LogFormat)
	viper.SetDefault("snapshot_path", cfg.SnapshotPath)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxMsg < 1 {
		return fmt.Errorf("max_msg must be at least 1")
	}
	if c.MaxArgs < 1 {
		return fmt.Errorf("max_args must be at least 1")
	}
	if c.SkipListMaxLevel < 1 {
		return fmt.Errorf("skiplist_max_level must be at least 1")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("kv-storage config: %s:%d, max_msg=%d, max_args=%d, log_level=%s",
		c.Host, c.Port, c.MaxMsg, c.MaxArgs, c.LogLevel)
}
