package client

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings the speak client reads from the environment.
type Config struct {
	// APIURL is the base URL of the speech service.
	APIURL string
	// BearerToken is sent as an Authorization header when set.
	BearerToken string
	// Timeout bounds a whole request, including synthesis time.
	Timeout time.Duration

	// Logging settings
	LogLevel  string
	LogFormat string
}

// Load reads client configuration from environment variables with sane
// defaults, applying a .env file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:      getEnvString("SPEAK_API_URL", "http://localhost:8080"),
		BearerToken: os.Getenv("SPEAK_BEARER_TOKEN"),
		Timeout:     getEnvDuration("SPEAK_TIMEOUT", 90*time.Second),
		LogLevel:    getEnvString("LOG_LEVEL", "info"),
		LogFormat:   getEnvString("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("SPEAK_API_URL cannot be empty")
	}

	if c.Timeout <= 0 {
		return errors.New("SPEAK_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return errors.New("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
