// Package llm wraps the text-generation services used to summarize pages.
package llm

import (
	"context"
	"strings"
	"time"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultTimeout     = 45 * time.Second
)

// Provider turns a single prompt into a completion. Implementations ask the
// service for JSON output where it supports that.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider     string
	Model        string
	BaseURL      string
	GeminiAPIKey string
	OpenAIAPIKey string
	Timeout      time.Duration
}

// NewProvider selects an implementation by name. Credentials are not checked
// here; a provider without a key reports a configuration error when called.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGeminiProvider(GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   defaultIfEmpty(cfg.Model, defaultGeminiModel),
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   defaultIfEmpty(cfg.Model, defaultOpenAIModel),
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case ProviderOpenRouter:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   defaultIfEmpty(cfg.Model, defaultOpenAIModel),
			BaseURL: defaultIfEmpty(cfg.BaseURL, "https://openrouter.ai/api/v1"),
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, ErrUnsupportedProvider{Provider: cfg.Provider}
	}
}

func defaultIfEmpty(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
