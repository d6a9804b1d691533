// Package agentplatform is a small REST client for the hosted conversational
// agent platform: reasoning resources, chat agents, chat sessions and web
// calls.
package agentplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/config"
)

const (
	DefaultBaseURL = "https://api.retellai.com"

	ResponseEngineType = "retell-llm"
	RoleAgent          = "agent"
	RoleUser           = "user"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	validate *validator.Validate
	logger   *zap.Logger
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent platform request failed: status %d: %s", e.StatusCode, e.Body)
}

func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
		logger:   logger.Named("agentplatform"),
	}
}

type ReasoningResourceRequest struct {
	Model         string `json:"model"`
	GeneralPrompt string `json:"general_prompt"`
	BeginMessage  string `json:"begin_message,omitempty"`
}

type ChatAgentRequest struct {
	Name       string
	ResourceID string
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type WebCall struct {
	AccessToken string `json:"access_token" validate:"required"`
	CallID      string `json:"call_id" validate:"required"`
}

// CreateReasoningResource creates the LLM response engine an agent runs on
// and returns its id.
func (c *Client) CreateReasoningResource(ctx context.Context, req ReasoningResourceRequest) (string, error) {
	var out struct {
		LLMID string `json:"llm_id" validate:"required"`
	}
	if err := c.post(ctx, "/create-retell-llm", req, &out); err != nil {
		return "", fmt.Errorf("create reasoning resource: %w", err)
	}
	return out.LLMID, nil
}

func (c *Client) CreateChatAgent(ctx context.Context, req ChatAgentRequest) (string, error) {
	payload := map[string]any{
		"agent_name": req.Name,
		"response_engine": map[string]string{
			"type":   ResponseEngineType,
			"llm_id": req.ResourceID,
		},
	}
	var out struct {
		AgentID string `json:"agent_id" validate:"required"`
	}
	if err := c.post(ctx, "/create-chat-agent", payload, &out); err != nil {
		return "", fmt.Errorf("create chat agent: %w", err)
	}
	return out.AgentID, nil
}

func (c *Client) CreateChat(ctx context.Context, agentID string) (string, error) {
	var out struct {
		ChatID string `json:"chat_id" validate:"required"`
	}
	if err := c.post(ctx, "/create-chat", map[string]string{"agent_id": agentID}, &out); err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}
	return out.ChatID, nil
}

// CreateChatCompletion sends one user message and returns the messages the
// platform appended in response.
func (c *Client) CreateChatCompletion(ctx context.Context, chatID, content string) ([]ChatMessage, error) {
	var out struct {
		Messages []ChatMessage `json:"messages"`
	}
	payload := map[string]string{"chat_id": chatID, "content": content}
	if err := c.post(ctx, "/create-chat-completion", payload, &out); err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	return out.Messages, nil
}

// CreateWebCall registers a browser voice call. Dynamic variables are sent as
// strings, which is the only value type the platform accepts.
func (c *Client) CreateWebCall(ctx context.Context, agentID string, dynamicVariables map[string]any) (WebCall, error) {
	payload := map[string]any{"agent_id": agentID}
	if len(dynamicVariables) > 0 {
		payload["retell_llm_dynamic_variables"] = StringifyVariables(dynamicVariables)
	}
	var out WebCall
	if err := c.post(ctx, "/v2/create-web-call", payload, &out); err != nil {
		return WebCall{}, fmt.Errorf("create web call: %w", err)
	}
	return out, nil
}

// LastAgentReply returns the content of the last agent message, or "".
func LastAgentReply(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAgent {
			return messages[i].Content
		}
	}
	return ""
}

func StringifyVariables(vars map[string]any) map[string]string {
	out := make(map[string]string, len(vars))
	for key, value := range vars {
		switch v := value.(type) {
		case nil:
			out[key] = ""
		case string:
			out[key] = v
		case fmt.Stringer:
			out[key] = v.String()
		default:
			if encoded, err := json.Marshal(v); err == nil {
				out[key] = strings.Trim(string(encoded), `"`)
			} else {
				out[key] = fmt.Sprint(v)
			}
		}
	}
	return out
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	if c.apiKey == "" {
		return config.MissingCredentialError{Name: "AGENT_PLATFORM_API_KEY"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("agent platform request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(started)))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	c.logger.Debug("agent platform request completed", zap.String("path", path), zap.Duration("elapsed", time.Since(started)))
	return nil
}
