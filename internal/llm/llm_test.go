package llm

import (
	"errors"
	"testing"
)

func TestNewProvider_GeminiDefault(t *testing.T) {
	provider, err := NewProvider(Config{GeminiAPIKey: "g-key"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	gemini, ok := provider.(*GeminiProvider)
	if !ok {
		t.Fatalf("expected *GeminiProvider, got %T", provider)
	}
	if gemini.cfg.Model != defaultGeminiModel {
		t.Errorf("expected default model %q, got %q", defaultGeminiModel, gemini.cfg.Model)
	}
	if gemini.cfg.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %v", gemini.cfg.Timeout)
	}
}

func TestNewProvider_OpenAI(t *testing.T) {
	provider, err := NewProvider(Config{
		Provider:     "openai",
		Model:        "gpt-4o",
		OpenAIAPIKey: "test-key",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	openAIProvider, ok := provider.(*OpenAIProvider)
	if !ok {
		t.Fatalf("expected *OpenAIProvider, got %T", provider)
	}
	if openAIProvider.model != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %s", openAIProvider.model)
	}
}

func TestNewProvider_OpenRouterDefaultsModel(t *testing.T) {
	provider, err := NewProvider(Config{Provider: "OpenRouter", OpenAIAPIKey: "k"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	openAIProvider, ok := provider.(*OpenAIProvider)
	if !ok {
		t.Fatalf("expected *OpenAIProvider, got %T", provider)
	}
	if openAIProvider.model != defaultOpenAIModel {
		t.Errorf("expected default model, got %s", openAIProvider.model)
	}
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(Config{Provider: "anthropic"})
	var unsupported ErrUnsupportedProvider
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	if unsupported.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic', got %q", unsupported.Provider)
	}
}
