// Package config provides configuration loading and validation for the
// posting assistant.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/posting-assistant/internal/llm"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment
// variables or CLI flags.
type Config struct {
	// Server
	Addr           string   `json:"addr,omitempty" validate:"omitempty,hostname_port"` // Listen address, e.g. ":8080"
	AllowedOrigins []string `json:"allowed_origins,omitempty" validate:"dive,required"`

	// LLM
	Provider       string `json:"provider,omitempty" validate:"omitempty,oneof=gemini openai"`
	APIKey         string `json:"api_key,omitempty"`                            // Key for the selected provider
	BaseURL        string `json:"base_url,omitempty" validate:"omitempty,url"` // OpenAI-compatible endpoint
	Model          string `json:"model,omitempty"`                              // One model for every tier
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" validate:"gte=0,lte=300"`
	MaxRetries     int    `json:"max_retries,omitempty" validate:"gte=0,lte=10"`
	MaxConcurrent  int    `json:"max_concurrent,omitempty" validate:"gte=0,lte=256"`

	// Storage
	DatabaseURL          string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL             string `json:"redis_url,omitempty"`    // Redis session store; in-memory when empty
	SessionTTLMinutes    int    `json:"session_ttl_minutes,omitempty" validate:"gte=0"`
	SweepIntervalMinutes int    `json:"sweep_interval_minutes,omitempty" validate:"gte=0"`

	// Behavior
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Verbose  bool   `json:"verbose,omitempty"`  // Development logging
	GeoData  string `json:"geo_data,omitempty"` // Alternative geography dataset (YAML)
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:                 ":8080",
		Provider:             string(llm.ProviderGemini),
		TimeoutSeconds:       20,
		MaxRetries:           2,
		MaxConcurrent:        8,
		SessionTTLMinutes:    60,
		SweepIntervalMinutes: 5,
		LogLevel:             "info",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.GeoData != "" {
		if _, err := os.Stat(c.GeoData); os.IsNotExist(err) {
			return fmt.Errorf("config error: geography file not found: %s", c.GeoData)
		}
	}
	if c.BaseURL != "" && c.Provider == string(llm.ProviderGemini) {
		return fmt.Errorf("config error: 'base_url' only applies to the openai provider")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.Addr, defaults.Addr)
	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.BaseURL, defaults.BaseURL)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.RedisURL, defaults.RedisURL)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.GeoData, defaults.GeoData)
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}

	// Int fields: use default if zero
	mergeInt(&result.TimeoutSeconds, defaults.TimeoutSeconds)
	mergeInt(&result.MaxRetries, defaults.MaxRetries)
	mergeInt(&result.MaxConcurrent, defaults.MaxConcurrent)
	mergeInt(&result.SessionTTLMinutes, defaults.SessionTTLMinutes)
	mergeInt(&result.SweepIntervalMinutes, defaults.SweepIntervalMinutes)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// ApplyEnv overrides fields from environment variables read through getenv.
// The API key is taken from the variable matching the selected provider.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Provider, "LLM_PROVIDER")
	set(&c.DatabaseURL, "DATABASE_URL")
	set(&c.RedisURL, "REDIS_URL")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.Addr, "ADDR")

	if c.Provider == string(llm.ProviderOpenAI) {
		set(&c.APIKey, "OPENAI_API_KEY")
		set(&c.BaseURL, "OPENAI_BASE_URL")
		set(&c.Model, "OPENAI_MODEL")
		return
	}
	set(&c.APIKey, "GEMINI_API_KEY")
}

// LLMConfig returns the model configuration for the selected provider.
func (c *Config) LLMConfig() *llm.Config {
	var out *llm.Config
	if c.Provider == string(llm.ProviderOpenAI) {
		out = llm.DefaultOpenAIConfig(c.BaseURL)
	} else {
		out = llm.DefaultGeminiConfig()
	}
	if c.Model != "" {
		out = out.WithAllModels(c.Model)
	}
	return out
}

// RetryConfig returns the resilience settings of LLM calls.
func (c *Config) RetryConfig() llm.RetryConfig {
	rc := llm.DefaultRetryConfig()
	if c.TimeoutSeconds > 0 {
		rc.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	rc.MaxRetries = c.MaxRetries
	rc.MaxConcurrent = int64(c.MaxConcurrent)
	return rc
}

// SessionTTL returns how long an idle session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often idle sessions are evicted.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}
