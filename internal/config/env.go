package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables.
// An optional .env file is loaded first: the path in REVIEWD_ENV_FILE if
// set, otherwise a .env in the current directory when present. Real
// environment variables always win over .env entries.
func LoadFromEnv() (*Config, error) {
	cfg := New()

	if envFile := os.Getenv("REVIEWD_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load() // Ignore errors if no .env exists
	}

	defaultDBPath, err := defaultDatabasePath()
	if err != nil {
		return nil, err
	}

	cfg.Claude = ClaudeConfig{
		APIKey:            getEnvString("REVIEWD_CLAUDE_API_KEY", ""),
		BaseURL:           getEnvString("REVIEWD_CLAUDE_BASE_URL", "https://api.anthropic.com"),
		APIVersion:        getEnvString("REVIEWD_CLAUDE_API_VERSION", "2023-06-01"),
		Model:             getEnvString("REVIEWD_CLAUDE_MODEL", "claude-3-7-sonnet-20250219"),
		Timeout:           getEnvDuration("REVIEWD_CLAUDE_TIMEOUT", 60*time.Second),
		MaxRetries:        getEnvInt("REVIEWD_CLAUDE_MAX_RETRIES", 0),
		MaxTokens:         getEnvInt("REVIEWD_CLAUDE_MAX_TOKENS", 4096),
		Temperature:       getEnvFloat("REVIEWD_CLAUDE_TEMPERATURE", 0.1),
		RequestsPerMinute: getEnvInt("REVIEWD_CLAUDE_REQUESTS_PER_MINUTE", 0),
		BurstLimit:        getEnvInt("REVIEWD_CLAUDE_BURST_LIMIT", 1),
	}

	cfg.Database = DatabaseConfig{
		Path:            getEnvString("REVIEWD_DB_PATH", defaultDBPath),
		BusyTimeout:     getEnvInt("REVIEWD_DB_BUSY_TIMEOUT", 5000),
		JournalMode:     getEnvString("REVIEWD_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("REVIEWD_DB_SYNCHRONOUS_MODE", "NORMAL"),
		CacheSize:       getEnvInt("REVIEWD_DB_CACHE_SIZE", -64000), // ~64MB
		ForeignKeys:     getEnvBool("REVIEWD_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("REVIEWD_DB_CONN_MAX_LIFE", 5*time.Minute),
		QueryTimeout:    getEnvDuration("REVIEWD_DB_QUERY_TIMEOUT", 30*time.Second),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("REVIEWD_LOG_LEVEL", "info"),
		Format:     getEnvString("REVIEWD_LOG_FORMAT", "text"),
		Output:     getEnvString("REVIEWD_LOG_OUTPUT", "stderr"),
		AddSource:  getEnvBool("REVIEWD_LOG_ADD_SOURCE", false),
		TimeFormat: getEnvString("REVIEWD_LOG_TIME_FORMAT", time.RFC3339),
	}

	cfg.Server = ServerConfig{
		Host: getEnvString("REVIEWD_SERVER_HOST", "0.0.0.0"),
		Port: getEnvString("REVIEWD_SERVER_PORT", "8000"),
	}

	cfg.Review = ReviewConfig{
		FileTimeout: getEnvDuration("REVIEWD_REVIEW_FILE_TIMEOUT", 60*time.Second),
	}

	return cfg, cfg.Validate()
}

// defaultDatabasePath returns ~/.reviewd/reviewd.db, creating the directory
func defaultDatabasePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".reviewd")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(configDir, "reviewd.db"), nil
}

func getEnvString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
