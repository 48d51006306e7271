// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	BackendURL     string
	FrontendURL    string
	DBPath         string
	HistoryKey     string
	DefaultContext string
	RequestTimeout time.Duration
	Speech         SpeechConfig
}

// SpeechConfig controls the speech I/O adapters.
type SpeechConfig struct {
	SynthesisEnabled  bool
	RecognizerCommand []string // external speech-to-text command; empty = capability unavailable
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8090"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:5000"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/console.db"),
		HistoryKey:     getEnv("HISTORY_KEY", "movi_chat_history"),
		DefaultContext: getEnv("DEFAULT_CONTEXT", "general"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		Speech: SpeechConfig{
			SynthesisEnabled:  getEnvBool("TTS_ENABLED", true),
			RecognizerCommand: strings.Fields(getEnv("RECOGNIZER_CMD", "")),
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
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.HistoryKey == "" {
		return fmt.Errorf("HISTORY_KEY cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	return nil
}

// AllowedOrigins returns the browser origins permitted to reach the
// bridge and its transcript stream. With no frontend configured every
// origin is allowed, which suits local development.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
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
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
