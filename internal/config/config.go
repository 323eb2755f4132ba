package config

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgnsrekt/geminivoice/internal/wav"
)

// Config holds all application configuration.
type Config struct {
	// HTTP settings
	HTTPPort       int
	BearerToken    string
	AllowedOrigins []string

	// Upstream speech API settings
	GeminiAPIKey    string
	GeminiModel     string
	GeminiModels    []string
	GeminiBaseURL   string
	UpstreamTimeout time.Duration

	// Request limits
	MaxTextLength int

	// Audio format of the PCM returned upstream
	SampleRate  int
	Channels    int
	SampleWidth int

	// Voice and expression catalog; empty uses the built-in one
	CatalogFile string

	// Logging settings
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	model := getEnvString("GEMINI_MODEL", "gemini-2.5-flash-preview-tts")

	cfg := &Config{
		// HTTP settings
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		BearerToken:    os.Getenv("BEARER_TOKEN"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),

		// Upstream settings
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     model,
		GeminiModels:    getEnvList("GEMINI_MODELS", []string{model}),
		GeminiBaseURL:   getEnvString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 60*time.Second),

		// Request limits
		MaxTextLength: getEnvInt("MAX_TEXT_LENGTH", 5000),

		// Audio format
		SampleRate:  getEnvInt("SAMPLE_RATE", wav.DefaultSampleRate),
		Channels:    getEnvInt("CHANNELS", wav.DefaultChannels),
		SampleWidth: getEnvInt("SAMPLE_WIDTH", wav.DefaultSampleWidth),

		CatalogFile: os.Getenv("CATALOG_FILE"),

		// Logging settings
		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "text"),
		LogFile:   os.Getenv("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AuthDisabled returns true if bearer token authentication is disabled.
func (c *Config) AuthDisabled() bool {
	return c.BearerToken == ""
}

// UpstreamConfigured reports whether the credential and model needed to call
// the speech API are present.
func (c *Config) UpstreamConfigured() bool {
	return c.GeminiAPIKey != "" && c.GeminiModel != ""
}

// AudioFormat returns the PCM format descriptor used to wrap upstream audio.
func (c *Config) AudioFormat() wav.Format {
	return wav.Format{
		SampleRate:  c.SampleRate,
		Channels:    c.Channels,
		SampleWidth: c.SampleWidth,
	}
}

// Validate checks that configuration values are in range.
func (c *Config) Validate() error {
	// The API key and model are checked per request so the server can still
	// report a clear error to clients when they are missing.

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return errors.New("HTTP_PORT must be between 1 and 65535")
	}

	if len(c.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS must list at least one origin")
	}

	if c.GeminiBaseURL == "" {
		return errors.New("GEMINI_BASE_URL cannot be empty")
	}

	if c.GeminiModel != "" && !slices.Contains(c.GeminiModels, c.GeminiModel) {
		return errors.New("GEMINI_MODEL must be listed in GEMINI_MODELS")
	}

	if c.UpstreamTimeout <= 0 {
		return errors.New("UPSTREAM_TIMEOUT must be positive")
	}

	if c.MaxTextLength < 1 {
		return errors.New("MAX_TEXT_LENGTH must be at least 1")
	}

	if err := c.AudioFormat().Validate(); err != nil {
		return errors.New("SAMPLE_RATE, CHANNELS and SAMPLE_WIDTH must describe a valid PCM format: " + err.Error())
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

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
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

// getEnvList returns a comma-separated environment variable as a trimmed
// list, or a default when unset or empty.
func getEnvList(key string, defaultValue []string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
