// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// AutosaveDebounce is the quiet period after the last edit before an
	// autosave fires. Defaults to 30s for behavioral parity with the
	// editing surface; configurable for tests and impatient users.
	AutosaveDebounce time.Duration

	// GenerationTimeout bounds every call to the generation backend.
	// A call exceeding it is reported as a stage generation failure,
	// never silently retried forever.
	GenerationTimeout time.Duration

	// GeneratorURL points at a remote generation service. Empty means
	// the built-in rule-based generator is used.
	GeneratorURL string

	StageLog StageLogConfig
}

// StageLogConfig controls NDJSON stage invocation logging.
type StageLogConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", ""),
		DBPath:            getEnv("DB_PATH", "./data/aura.db"),
		AutosaveDebounce:  getEnvDuration("AUTOSAVE_DEBOUNCE", 30*time.Second),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		GeneratorURL:      getEnv("GENERATOR_URL", ""),
		StageLog: StageLogConfig{
			Enabled: getEnvBool("STAGE_LOG_ENABLED", true),
			Path:    getEnv("STAGE_LOG_PATH", "./data/logs/stages.ndjson"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.AutosaveDebounce <= 0 {
		return fmt.Errorf("AUTOSAVE_DEBOUNCE must be > 0")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be > 0")
	}
	if c.StageLog.Enabled && c.StageLog.Path == "" {
		return fmt.Errorf("STAGE_LOG_PATH cannot be empty when stage logging is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	// Bare integers are taken as seconds.
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
