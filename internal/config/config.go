package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Environment string

	// Storage
	Backend string
	DataDir string
	DSN     string
	Key     string

	// Observability
	LogLevel    string
	LogFormat   string // json or console
	MetricsFile string

	// Presentation
	Theme       string
	NoColor     bool
	HistoryFile string
}

// Load reads TADA_* variables, after merging a .env file from the working
// directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("TADA_ENV", "development"),

		Backend: strings.ToLower(getEnv("TADA_BACKEND", BackendFile)),
		DataDir: getEnv("TADA_DATA_DIR", ""),
		DSN:     getEnv("TADA_DSN", ""),
		Key:     getEnv("TADA_KEY", "todos"),

		LogLevel:    strings.ToLower(getEnv("TADA_LOG_LEVEL", "warn")),
		LogFormat:   strings.ToLower(getEnv("TADA_LOG_FORMAT", "console")),
		MetricsFile: getEnv("TADA_METRICS_FILE", ""),

		Theme:       getEnv("TADA_THEME", "classic"),
		NoColor:     getEnvAsBool("NO_COLOR", false),
		HistoryFile: getEnv("TADA_HISTORY_FILE", ""),
	}

	if cfg.DataDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		cfg.DataDir = wd
	}
	if cfg.Backend == BackendSQLite && cfg.DSN == "" {
		cfg.DSN = filepath.Join(cfg.DataDir, "todos.db")
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(cfg.DataDir, ".tada_history")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	case BackendMySQL, BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("TADA_DSN is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("invalid backend: %s (valid: file, sqlite, mysql, postgres, memory)", c.Backend)
	}

	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("TADA_KEY must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		// NO_COLOR convention: any non-empty value disables colour.
		return true
	}
	return value
}
