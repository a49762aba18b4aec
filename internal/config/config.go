// Package config loads lineage settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is
// not given.
const DefaultPath = ".lineage/config.yaml"

// Config is the full lineage configuration.
type Config struct {
	Database string `yaml:"database"`

	// Engine tunables.
	DeleteBatchSize int `yaml:"delete_batch_size"`
	MaxMergeDepth   int `yaml:"max_merge_depth"`
	FlushEvery      int `yaml:"flush_every"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database:        ".lineage/lineage.db",
		DeleteBatchSize: 50,
		MaxMergeDepth:   64,
		FlushEvery:      100,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("LINEAGE_DB"); path != "" {
		c.Database = path
	}
	if level := os.Getenv("LINEAGE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if v := os.Getenv("LINEAGE_MAX_MERGE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxMergeDepth = n
		}
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.DeleteBatchSize < 1 {
		return fmt.Errorf("delete_batch_size must be positive, got %d", c.DeleteBatchSize)
	}
	if c.MaxMergeDepth < 1 {
		return fmt.Errorf("max_merge_depth must be positive, got %d", c.MaxMergeDepth)
	}
	if c.FlushEvery < 1 {
		return fmt.Errorf("flush_every must be positive, got %d", c.FlushEvery)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// NewLogger builds a zap logger from the log settings. verbose forces
// debug level.
func (c *Config) NewLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
