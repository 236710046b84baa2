package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/posting-assistant/internal/config"
	"github.com/jonathan/posting-assistant/internal/dialogue"
	"github.com/jonathan/posting-assistant/internal/geo"
	"github.com/jonathan/posting-assistant/internal/llm"
	"github.com/jonathan/posting-assistant/internal/observability"
	"github.com/jonathan/posting-assistant/internal/oracle"
)

// loadConfig layers the config file, defaults, the environment and the
// global flags, in that order of increasing precedence.
func loadConfig(path string, getenv func(string) string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	merged := cfg.MergeWithDefaults(config.Defaults())
	merged.ApplyEnv(getenv)
	if logLevel != "" {
		merged.LogLevel = logLevel
	}
	if verbose {
		merged.Verbose = true
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// loadGeo returns the embedded geography unless the config names a file.
func loadGeo(cfg *config.Config) (*geo.Service, error) {
	if cfg.GeoData == "" {
		return geo.Default(), nil
	}
	data, err := os.ReadFile(cfg.GeoData)
	if err != nil {
		return nil, fmt.Errorf("failed to read geography file: %w", err)
	}
	return geo.Load(data)
}

// newEngine builds the dialogue engine on top of the configured model
// provider. The returned client must be closed by the caller.
func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dialogue.Engine, llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("an API key is required for provider %s (set %s)", cfg.Provider, apiKeyVar(cfg.Provider))
	}

	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	resilient, err := llm.NewResilient(client, cfg.RetryConfig(), logger.Named("llm"))
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("invalid LLM retry settings: %w", err)
	}

	g, err := loadGeo(cfg)
	if err != nil {
		_ = resilient.Close()
		return nil, nil, err
	}

	o := oracle.NewLLMOracle(resilient, logger.Named("oracle"))
	return dialogue.NewEngine(o, g, logger.Named("dialogue")), resilient, nil
}

func apiKeyVar(provider string) string {
	if provider == string(llm.ProviderOpenAI) {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.LogLevel, cfg.Verbose)
}
