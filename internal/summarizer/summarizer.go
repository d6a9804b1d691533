// Package summarizer turns fetched page text into the knowledge summary an
// agent is provisioned with. It always produces a usable summary: when the
// LLM is unavailable or answers with something unusable, a deterministic
// fallback built from the page title and description is returned instead.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/llm"
	"github.com/MartialAndCo/berinia-bot/internal/metrics"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"

	ReasonNoProvider        = "no_provider"
	ReasonMissingCredential = "missing_credential"
	ReasonRequestFailed     = "request_failed"
	ReasonMalformedResponse = "malformed_response"

	defaultIndustry = "General"
)

type KnowledgeSummary struct {
	CompanyName     string `json:"companyName"`
	Industry        string `json:"industry"`
	SummaryText     string `json:"knowledgeBaseSummary"`
	OpeningGreeting string `json:"openingGreeting"`

	Source         string `json:"-"`
	FallbackReason string `json:"-"`
}

// llmSummary is the shape requested from the model. Older prompts asked for
// systemPrompt instead of knowledgeBaseSummary, so both are accepted.
type llmSummary struct {
	CompanyName          string `json:"companyName" validate:"required"`
	Industry             string `json:"industry"`
	KnowledgeBaseSummary string `json:"knowledgeBaseSummary" validate:"required_without=SystemPrompt"`
	SystemPrompt         string `json:"systemPrompt"`
	OpeningGreeting      string `json:"openingGreeting"`
}

type Summarizer struct {
	provider llm.Provider
	logger   *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// New returns a Summarizer. A nil provider means no LLM is configured and
// every call takes the fallback path.
func New(provider llm.Provider, logger *zap.Logger, m *metrics.Metrics) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		provider: provider,
		logger:   logger.Named("summarizer"),
		metrics:  m,
		validate: validator.New(),
	}
}

func (s *Summarizer) Summarize(ctx context.Context, text, sourceURL string) KnowledgeSummary {
	summary, reason := s.summarize(ctx, text, sourceURL)
	if reason != "" {
		summary = Fallback(text, sourceURL)
		summary.FallbackReason = reason
	}
	s.metrics.ObserveSummary(summary.Source, summary.FallbackReason)
	return summary
}

func (s *Summarizer) summarize(ctx context.Context, text, sourceURL string) (KnowledgeSummary, string) {
	if s.provider == nil {
		s.logger.Info("no LLM provider configured, using fallback summary", zap.String("url", sourceURL))
		return KnowledgeSummary{}, ReasonNoProvider
	}

	raw, err := s.provider.Generate(ctx, BuildPrompt(text, sourceURL))
	if err != nil {
		var missing config.MissingCredentialError
		if errors.As(err, &missing) {
			s.logger.Warn("LLM credential missing, using fallback summary", zap.String("url", sourceURL), zap.String("credential", missing.Name))
			return KnowledgeSummary{}, ReasonMissingCredential
		}
		s.logger.Warn("LLM request failed, using fallback summary", zap.String("url", sourceURL), zap.Error(err))
		return KnowledgeSummary{}, ReasonRequestFailed
	}

	summary, err := s.parse(raw)
	if err != nil {
		s.logger.Warn("LLM response unusable, using fallback summary", zap.String("url", sourceURL), zap.Error(err))
		return KnowledgeSummary{}, ReasonMalformedResponse
	}
	return summary, ""
}

func (s *Summarizer) parse(raw string) (KnowledgeSummary, error) {
	var parsed llmSummary
	if err := json.Unmarshal([]byte(StripFences(raw)), &parsed); err != nil {
		return KnowledgeSummary{}, fmt.Errorf("decode summary json: %w", err)
	}
	parsed.CompanyName = strings.TrimSpace(parsed.CompanyName)
	parsed.KnowledgeBaseSummary = strings.TrimSpace(parsed.KnowledgeBaseSummary)
	parsed.SystemPrompt = strings.TrimSpace(parsed.SystemPrompt)
	if err := s.validate.Struct(parsed); err != nil {
		return KnowledgeSummary{}, fmt.Errorf("validate summary: %w", err)
	}

	summary := KnowledgeSummary{
		CompanyName:     parsed.CompanyName,
		Industry:        strings.TrimSpace(parsed.Industry),
		SummaryText:     parsed.KnowledgeBaseSummary,
		OpeningGreeting: strings.TrimSpace(parsed.OpeningGreeting),
		Source:          SourceLLM,
	}
	if summary.SummaryText == "" {
		summary.SummaryText = parsed.SystemPrompt
	}
	if summary.Industry == "" {
		summary.Industry = defaultIndustry
	}
	if summary.OpeningGreeting == "" {
		summary.OpeningGreeting = greeting(summary.CompanyName)
	}
	return summary, nil
}

// StripFences removes markdown code fences the model may wrap JSON in.
func StripFences(raw string) string {
	out := strings.ReplaceAll(raw, "```json", "")
	out = strings.ReplaceAll(out, "```JSON", "")
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}

func greeting(name string) string {
	return fmt.Sprintf("Welcome to %s! How can we help you today?", name)
}
