package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultStreamTickMS is the progress stream tick interval used when no valid override is configured
const DefaultStreamTickMS = 5000

// Cancellation signal backends
const (
	CancelBackendBadger = "badger"
	CancelBackendFile   = "file"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment" yaml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server" yaml:"server"`
	Storage     StorageConfig `toml:"storage" yaml:"storage"`
	Logging     LoggingConfig `toml:"logging" yaml:"logging"`
	Import      ImportConfig  `toml:"import" yaml:"import"`
}

type ServerConfig struct {
	Port int    `toml:"port" yaml:"port"`
	Host string `toml:"host" yaml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger" yaml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" yaml:"path"`                         // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup" yaml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level"`   // "debug", "info", "warn", "error"
	Format string   `toml:"format" yaml:"format"` // "json" or "text"
	Output []string `toml:"output" yaml:"output"` // "stdout", "file"
}

// ImportConfig controls the background import runner
type ImportConfig struct {
	StreamTickMS      int     `toml:"stream_tick_ms" yaml:"stream_tick_ms"`             // Progress stream tick interval in milliseconds
	CancelBackend     string  `toml:"cancel_backend" yaml:"cancel_backend"`             // "badger" or "file"
	SignalDir         string  `toml:"signal_dir" yaml:"signal_dir"`                     // Marker directory for the file backend
	ItemDelay         string  `toml:"item_delay" yaml:"item_delay"`                     // Per-item workload delay, e.g. "1s"
	MaxItemsPerSecond float64 `toml:"max_items_per_second" yaml:"max_items_per_second"` // 0 = unlimited
	ChannelBuffer     int     `toml:"channel_buffer" yaml:"channel_buffer"`             // Worker message channel capacity
	BufferRetention   string  `toml:"buffer_retention" yaml:"buffer_retention"`         // Empty disables log buffer eviction
	SweepSchedule     string  `toml:"sweep_schedule" yaml:"sweep_schedule"`             // Cron spec for the eviction sweep
}

// StreamTickInterval returns the configured tick interval, falling back to the default for non-positive values
func (c ImportConfig) StreamTickInterval() time.Duration {
	if c.StreamTickMS <= 0 {
		return DefaultStreamTickMS * time.Millisecond
	}
	return time.Duration(c.StreamTickMS) * time.Millisecond
}

// ItemDelayDuration parses item_delay; invalid or negative values mean no delay
func (c ImportConfig) ItemDelayDuration() time.Duration {
	d := parseDuration(c.ItemDelay)
	if d < 0 {
		return 0
	}
	return d
}

// RetentionDuration parses buffer_retention; zero disables eviction
func (c ImportConfig) RetentionDuration() time.Duration {
	d := parseDuration(c.BufferRetention)
	if d < 0 {
		return 0
	}
	return d
}

// NewDefaultConfig returns the configuration defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Import: ImportConfig{
			StreamTickMS:      DefaultStreamTickMS,
			CancelBackend:     CancelBackendBadger,
			SignalDir:         "./data/cancel",
			ItemDelay:         "1s", // Matches the sampled per-item workload
			MaxItemsPerSecond: 0,
			ChannelBuffer:     64,
			BufferRetention:   "", // No eviction unless an operator opts in
			SweepSchedule:     "@every 10m",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied separately via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that cannot be silently defaulted
func (c *Config) Validate() error {
	switch c.Import.CancelBackend {
	case CancelBackendBadger, CancelBackendFile:
	default:
		return fmt.Errorf("unsupported cancel_backend: %s (valid: %s, %s)", c.Import.CancelBackend, CancelBackendBadger, CancelBackendFile)
	}

	if c.Import.CancelBackend == CancelBackendFile && c.Import.SignalDir == "" {
		return fmt.Errorf("signal_dir is required when cancel_backend is %s", CancelBackendFile)
	}

	if c.Import.RetentionDuration() > 0 {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Import.SweepSchedule); err != nil {
			return fmt.Errorf("invalid sweep_schedule %q: %w", c.Import.SweepSchedule, err)
		}
	}

	// Non-positive tick values are not an error: the stream falls back to the default
	if c.Import.StreamTickMS <= 0 {
		c.Import.StreamTickMS = DefaultStreamTickMS
	}
	if c.Import.ChannelBuffer <= 0 {
		c.Import.ChannelBuffer = 64
	}

	return nil
}

// ParseStreamTickMS parses a tick interval override, returning the default for non-numeric or non-positive input
func ParseStreamTickMS(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return DefaultStreamTickMS
	}
	return v
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADIMPORT_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("ADIMPORT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ADIMPORT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("ADIMPORT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("ADIMPORT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("ADIMPORT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("ADIMPORT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Import configuration
	if tick, ok := os.LookupEnv("ADIMPORT_STREAM_TICK_MS"); ok {
		config.Import.StreamTickMS = ParseStreamTickMS(tick)
	}
	if backend := os.Getenv("ADIMPORT_CANCEL_BACKEND"); backend != "" {
		config.Import.CancelBackend = strings.ToLower(strings.TrimSpace(backend))
	}
	if dir := os.Getenv("ADIMPORT_SIGNAL_DIR"); dir != "" {
		config.Import.SignalDir = dir
	}
	if delay := os.Getenv("ADIMPORT_ITEM_DELAY"); delay != "" {
		config.Import.ItemDelay = delay
	}
	if retention := os.Getenv("ADIMPORT_BUFFER_RETENTION"); retention != "" {
		config.Import.BufferRetention = retention
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// parseDuration parses a duration string, returning 0 for empty or invalid input
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
