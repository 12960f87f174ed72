// Package config loads and validates the semantic code engine's
// configuration: a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime knob the engine reads at startup.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig configures the semantic store's connection.
type DatabaseConfig struct {
	// URL is the sqlite3 connection string (e.g. "file:./data/semcore.db").
	URL string `yaml:"url"`
}

// IngestConfig configures the ingest coordinator's resource limits.
type IngestConfig struct {
	WorkerThreads  int   `yaml:"worker_threads"`
	ParseTimeoutMs int   `yaml:"parse_timeout_ms"`
	MaxFileBytes   int64 `yaml:"max_file_bytes"`
	MaxTotalBytes  int64 `yaml:"max_total_bytes"`
	IncludeTests   bool  `yaml:"include_tests"`
}

// CacheConfig configures the optional content-digest cache. An empty URL
// means in-process memoization only.
type CacheConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

const (
	defaultParseTimeoutMs = 30_000
	defaultMaxFileBytes   = 10 * 1 << 20
	defaultMaxTotalBytes  = 500 * 1 << 20
)

// DefaultConfig returns the engine's defaults before any file or
// environment override is applied.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "file:./data/semcore.db",
		},
		Ingest: IngestConfig{
			WorkerThreads:  runtime.NumCPU(),
			ParseTimeoutMs: defaultParseTimeoutMs,
			MaxFileBytes:   defaultMaxFileBytes,
			MaxTotalBytes:  defaultMaxTotalBytes,
			IncludeTests:   true,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// Load reads a YAML config file at path, falling back silently to defaults
// if the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults stand
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("WORKER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ingest.WorkerThreads = n
		}
	}
	if v := os.Getenv("PARSE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ingest.ParseTimeoutMs = n
		}
	}
	if v := os.Getenv("MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Ingest.MaxFileBytes = n
		}
	}
	if v := os.Getenv("MAX_TOTAL_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Ingest.MaxTotalBytes = n
		}
	}
	if v := os.Getenv("CACHE_URL"); v != "" {
		c.Cache.URL = v
	}
}

// Validate checks the required fields and sane ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: database.url (DATABASE_URL) is required")
	}
	if c.Ingest.WorkerThreads <= 0 {
		return fmt.Errorf("config: ingest.worker_threads must be positive")
	}
	if c.Ingest.MaxFileBytes <= 0 || c.Ingest.MaxTotalBytes <= 0 {
		return fmt.Errorf("config: max_file_bytes and max_total_bytes must be positive")
	}
	if c.Ingest.MaxFileBytes > c.Ingest.MaxTotalBytes {
		return fmt.Errorf("config: max_file_bytes cannot exceed max_total_bytes")
	}
	return nil
}

// ParseTimeout returns the per-file parse timeout as a time.Duration.
func (c *Config) ParseTimeout() time.Duration {
	return time.Duration(c.Ingest.ParseTimeoutMs) * time.Millisecond
}

// Save writes c to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
