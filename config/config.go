package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Swind/go-osthread/core"
)

// Config is the complete configuration of an osthread runtime and its tooling.
type Config struct {
	// Thread runtime settings
	Threads ThreadsConfig `toml:"threads"`

	// Logging settings
	Logging LoggingConfig `toml:"logging"`

	// Prometheus settings
	Metrics MetricsConfig `toml:"metrics"`
}

// ThreadsConfig contains thread runtime settings
type ThreadsConfig struct {
	// Prefix of generated thread names (default: "#")
	NamePrefix string `toml:"name_prefix"`

	// Initial priority of new threads: lowest, low, normal, high, highest (default: "normal")
	DefaultPriority string `toml:"default_priority"`

	// Maximum number of live threads, 0 for no limit (default: 0)
	MaxThreads int `toml:"max_threads"`

	// Recover runnable panics and log them instead of crashing (default: false)
	RecoverPanics bool `toml:"recover_panics"`

	// Number of finished threads kept for reports (default: 100)
	HistorySize int `toml:"history_size"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	// Log level: trace, debug, info, warn, error (default: "info")
	Level string `toml:"level"`

	// Output format: console, json, logfmt (default: "console")
	Format string `toml:"format"`

	// Destination: stderr, stdout or a file path (default: "stderr")
	Output string `toml:"output"`

	// Maximum log file size in megabytes when Output is a file (default: 10)
	MaxSize int64 `toml:"max_size"`

	// Rotated log files to keep when Output is a file (default: 7)
	MaxBackups int `toml:"max_backups"`

	// Use asynchronous writing (default: false)
	Async bool `toml:"async"`

	// Colorize console output (default: true)
	Color bool `toml:"color"`
}

// MetricsConfig contains Prometheus exporter settings
type MetricsConfig struct {
	// Enable the exporter (default: false)
	Enabled bool `toml:"enabled"`

	// Metric namespace (default: "osthread")
	Namespace string `toml:"namespace"`

	// Listen address of the metrics endpoint (default: "localhost:9190")
	ListenAddress string `toml:"listen_address"`

	// Metrics endpoint path (default: "/metrics")
	Path string `toml:"path"`

	// Interval of runtime snapshot polling, as a Go duration (default: "1s")
	PollInterval string `toml:"poll_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Threads: ThreadsConfig{
			NamePrefix:      core.DefaultNamePrefix,
			DefaultPriority: core.PriorityNormal.String(),
			MaxThreads:      0,
			RecoverPanics:   false,
			HistorySize:     100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    10, // 10MB
			MaxBackups: 7,
			Async:      false,
			Color:      true,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			Namespace:     "osthread",
			ListenAddress: "localhost:9190",
			Path:          "/metrics",
			PollInterval:  "1s",
		},
	}
}

// LoadConfig loads configuration from a TOML file, falling back to defaults
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("config file not found: %s", configPath)
	}

	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a TOML file
func SaveConfig(configPath string, config *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", configPath, err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := core.ParsePriority(c.Threads.DefaultPriority); err != nil {
		return fmt.Errorf("threads.default_priority: %w", err)
	}
	if c.Threads.MaxThreads < 0 {
		return fmt.Errorf("threads.max_threads cannot be negative")
	}
	if c.Threads.HistorySize < 0 {
		return fmt.Errorf("threads.history_size cannot be negative")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json", "logfmt":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json, logfmt", c.Logging.Format)
	}
	if c.Logging.Output == "" {
		return fmt.Errorf("logging.output cannot be empty")
	}

	if c.Metrics.Enabled {
		if c.Metrics.ListenAddress == "" {
			return fmt.Errorf("metrics.listen_address cannot be empty")
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics.path cannot be empty")
		}
		if c.Metrics.Namespace == "" {
			return fmt.Errorf("metrics.namespace cannot be empty")
		}
	}
	if _, err := c.Metrics.Interval(); err != nil {
		return err
	}

	return nil
}

// Interval parses PollInterval. An empty value means one second.
func (m MetricsConfig) Interval() (time.Duration, error) {
	if m.PollInterval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(m.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("metrics.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("metrics.poll_interval must be positive, got %s", m.PollInterval)
	}
	return d, nil
}

// RuntimeConfig converts the thread settings into a core.RuntimeConfig.
// Logger and Metrics are left for the caller to fill in.
func (t ThreadsConfig) RuntimeConfig(logger core.Logger) (*core.RuntimeConfig, error) {
	priority, err := core.ParsePriority(t.DefaultPriority)
	if err != nil {
		return nil, fmt.Errorf("threads.default_priority: %w", err)
	}

	cfg := &core.RuntimeConfig{
		Backend:         core.NewOSBackend(core.OSBackendConfig{MaxThreads: t.MaxThreads}),
		Logger:          logger,
		NamePrefix:      t.NamePrefix,
		DefaultPriority: priority,
		HistorySize:     t.HistorySize,
	}
	if t.RecoverPanics && logger != nil {
		cfg.PanicHandler = &core.LoggingPanicHandler{Logger: logger}
	}
	return cfg, nil
}
