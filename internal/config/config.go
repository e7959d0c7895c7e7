// Package config holds the environment-derived configuration for reviewd.
// Configuration is read once at process start and is immutable afterwards;
// it is passed to components by reference rather than through globals.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Claude   ClaudeConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Server   ServerConfig
	Review   ReviewConfig
}

// ClaudeConfig holds the completion provider configuration.
// An empty APIKey selects mock mode: the analysis engine synthesizes
// deterministic suggestions without calling any external service.
type ClaudeConfig struct {
	APIKey      string        // Provider API key; empty enables mock mode
	BaseURL     string        // Provider API base URL
	APIVersion  string        // API version header value
	Model       string        // Model identifier to request
	Timeout     time.Duration // Request timeout; an exceeded timeout degrades like any provider failure
	MaxRetries  int           // Retry attempts on failure; 0 means a single attempt
	MaxTokens   int           // Max tokens to generate
	Temperature float64       // Near-zero for deterministic review output

	// Rate limiting
	RequestsPerMinute int
	BurstLimit        int
}

// DatabaseConfig represents SQLite configuration
type DatabaseConfig struct {
	Path            string        // Path to the SQLite database file
	JournalMode     string        // Journal mode (WAL recommended)
	SynchronousMode string        // Synchronous mode
	BusyTimeout     int           // Busy timeout in milliseconds
	CacheSize       int           // Cache size in KiB
	ForeignKeys     bool          // Whether to enforce foreign key constraints
	ConnMaxLife     time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Query timeout
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// ReviewConfig holds review execution settings
type ReviewConfig struct {
	FileTimeout time.Duration // Per-file analysis timeout for the CLI walker
}

// New returns a new empty Config
func New() *Config {
	return &Config{}
}

// MockMode reports whether the engine should run without a provider.
func (c *Config) MockMode() bool {
	return c.Claude.APIKey == ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateClaude(); err != nil {
		return fmt.Errorf("claude config: %w", err)
	}
	if err := c.validateDatabase(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	return nil
}

func (c *Config) validateClaude() error {
	// No API key means mock mode; nothing else matters then.
	if c.Claude.APIKey == "" {
		return nil
	}
	if c.Claude.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.Claude.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.Claude.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Claude.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.Claude.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout cannot be negative")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "none":
	default:
		return fmt.Errorf("invalid level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format: %s", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	return nil
}

// ParseLogLevel parses a log level string to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		// Set to a very high level that won't be triggered
		return slog.Level(9999)
	default:
		return slog.LevelInfo
	}
}
