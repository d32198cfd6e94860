// Package config loads the tool configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for reviewsync.
type Config struct {
	// Authentication: either a personal access token or a GitHub App.
	GitHubToken      string
	GitHubAppID      string
	GitHubPrivateKey string

	// Document path (the JSON state file shared between stages).
	DocumentPath string

	// Poster settings.
	Workers int

	// HTTP settings.
	HTTPTimeout time.Duration

	// Decision web UI settings.
	Port int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		GitHubAppID:      os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey: normalizePrivateKey(os.Getenv("GITHUB_PRIVATE_KEY")),
		DocumentPath:     getEnv("REVIEWSYNC_DOC", "review-comments.json"),
		Workers:          getEnvInt("REVIEWSYNC_WORKERS", 5),
		HTTPTimeout:      time.Duration(getEnvInt("REVIEWSYNC_HTTP_TIMEOUT_SECONDS", 20)) * time.Second,
		Port:             getEnvInt("PORT", 8000),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseAppAuth reports whether GitHub App credentials are configured.
func (c *Config) UseAppAuth() bool {
	return c.GitHubAppID != ""
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	if c.GitHubToken == "" && c.GitHubAppID == "" {
		return fmt.Errorf("GITHUB_TOKEN or GITHUB_APP_ID is required")
	}
	if c.GitHubAppID != "" && c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY is required when GITHUB_APP_ID is set")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("REVIEWSYNC_WORKERS must be greater than 0")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("REVIEWSYNC_HTTP_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port number")
	}
	return nil
}

// normalizePrivateKey accepts keys pasted with quotes or escaped newlines.
func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\r", "")
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// getEnv gets environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
