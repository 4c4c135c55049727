// Package config loads arenalog tool configuration from a YAML file and
// the environment. Environment variables win over the file, the file
// wins over defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/arenalog/arenalog-go/pkg/arenalog"
)

// MaxConfigFileSize is the maximum allowed size for a config file (1MB).
// This limit prevents denial-of-service via extremely large files.
const MaxConfigFileSize = 1 * 1024 * 1024

// Output formats accepted by Format.
var validFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// Config holds everything the CLI needs. Zero values fall back to the
// defaults from Default.
type Config struct {
	// LogDir is the combat log directory. Empty means auto-detect.
	LogDir string `yaml:"log_dir" env:"ARENALOG_LOGDIR"`
	// OutDir receives per-match combat log extracts.
	OutDir string `yaml:"out_dir" env:"ARENALOG_OUTDIR"`
	// Database is the SQLite file for match history. Empty disables
	// persistence.
	Database string `yaml:"database" env:"ARENALOG_DATABASE"`
	// Format selects event output: jsonl or pretty.
	Format string `yaml:"format" env:"ARENALOG_FORMAT"`
	// PollInterval is the log rotation check interval.
	PollInterval time.Duration `yaml:"poll_interval" env:"ARENALOG_POLL_INTERVAL"`
	// BufferLimit caps the session parser's identity line buffer.
	BufferLimit int `yaml:"buffer_limit" env:"ARENALOG_BUFFER_LIMIT"`
	// FromStart replays the current log file from its beginning.
	FromStart bool `yaml:"from_start" env:"ARENALOG_FROM_START"`
}

// ValidationError reports a config field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Default returns the configuration used when no file and no environment
// overrides exist.
func Default() Config {
	return Config{
		OutDir:       "matches",
		Format:       "jsonl",
		PollInterval: 2 * time.Second,
		BufferLimit:  arenalog.DefaultBufferLimit,
	}
}

// Load reads configuration from an optional YAML file, then overlays
// environment variables. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadBytes parses configuration from raw YAML, overlays the
// environment, and validates. Used by tests and embedding callers.
func LoadBytes(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if !validFormats[c.Format] {
		return &ValidationError{Field: "format", Message: fmt.Sprintf("unknown format %q (jsonl, pretty)", c.Format)}
	}
	if c.PollInterval <= 0 {
		return &ValidationError{Field: "poll_interval", Message: fmt.Sprintf("must be positive, got %v", c.PollInterval)}
	}
	if c.BufferLimit <= 0 {
		return &ValidationError{Field: "buffer_limit", Message: fmt.Sprintf("must be positive, got %d", c.BufferLimit)}
	}
	return nil
}

// readConfigFile reads a config file with the same hardening as the
// rest of the tool's file handling: regular files only, size capped.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Stat the file descriptor (not the path) to avoid TOCTOU
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.New("config file must be a regular file")
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigFileSize)
	}

	// Read MaxConfigFileSize+1 to detect if file grows beyond limit
	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > MaxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), MaxConfigFileSize)
	}
	return data, nil
}
