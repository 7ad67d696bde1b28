// Package config handles configuration management for olist-etl.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for olist-etl.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// DataDir is the directory holding the four olist CSV datasets.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Pipeline holds configuration for the run subcommand.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Serve holds configuration for the serve subcommand.
	Serve ServeConfig `mapstructure:"serve"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// PipelineConfig holds configuration for a pipeline run.
type PipelineConfig struct {
	// BatchSize is the number of master rows written per commit.
	BatchSize int `mapstructure:"batch_size"`

	// LoadTimeout bounds CSV loading, in seconds.
	LoadTimeout int `mapstructure:"load_timeout"`

	// WriteTimeout bounds each table's build and persist step, in seconds.
	WriteTimeout int `mapstructure:"write_timeout"`

	// Retries is the number of attempts for retryable stages (load, connect).
	Retries int `mapstructure:"retries"`

	// RetryDelay is the delay between attempts, in seconds.
	RetryDelay int `mapstructure:"retry_delay"`
}

// ServeConfig holds configuration for the query API server.
type ServeConfig struct {
	// Listen is the HTTP listen address.
	Listen string `mapstructure:"listen"`
}

// SeedConfig holds configuration for sample data generation.
type SeedConfig struct {
	// Orders is the number of orders to generate.
	Orders int `mapstructure:"orders"`

	// Dir is the output directory for the generated CSV files.
	Dir string `mapstructure:"dir"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		LogLevel: "info",
		Pipeline: PipelineConfig{
			BatchSize:    1000,
			LoadTimeout:  60,
			WriteTimeout: 300,
			Retries:      3,
			RetryDelay:   10,
		},
		Serve: ServeConfig{
			Listen: ":8080",
		},
		Seed: SeedConfig{
			Orders: 1000,
			Dir:    "data",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./olist-etl.yaml
// 3. ~/.config/olist-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("olist-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "olist-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	if c.Pipeline.LoadTimeout < 1 {
		return fmt.Errorf("load_timeout must be at least 1 second")
	}
	if c.Pipeline.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second")
	}
	if c.Pipeline.Retries < 1 {
		return fmt.Errorf("retries must be at least 1")
	}
	if c.Pipeline.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative")
	}
	return nil
}

// ValidateServe checks configuration required for the serve command.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Serve.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if c.Seed.Orders < 1 {
		return fmt.Errorf("orders must be at least 1")
	}
	if c.Seed.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}
