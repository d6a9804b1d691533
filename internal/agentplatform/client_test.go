package agentplatform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/config"
)

type recordedRequest struct {
	Path string
	Auth string
	Body map[string]any
}

func newTestServer(t *testing.T, responses map[string]string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		requests = append(requests, recordedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		resp, ok := responses[r.URL.Path]
		if !ok {
			http.Error(w, `{"error":"unknown path"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestCreateReasoningResourceAndAgent(t *testing.T) {
	srv, requests := newTestServer(t, map[string]string{
		"/create-retell-llm": `{"llm_id":"llm_123"}`,
		"/create-chat-agent": `{"agent_id":"agent_456"}`,
	})
	client := New(Config{APIKey: "key", BaseURL: srv.URL + "/"}, zap.NewNop())

	llmID, err := client.CreateReasoningResource(context.Background(), ReasoningResourceRequest{
		Model:         "gpt-4.1-mini",
		GeneralPrompt: "You are helpful.",
		BeginMessage:  "Hello!",
	})
	require.NoError(t, err)
	require.Equal(t, "llm_123", llmID)

	agentID, err := client.CreateChatAgent(context.Background(), ChatAgentRequest{Name: "Acme Assistant", ResourceID: llmID})
	require.NoError(t, err)
	require.Equal(t, "agent_456", agentID)

	require.Len(t, *requests, 2)
	first := (*requests)[0]
	require.Equal(t, "Bearer key", first.Auth)
	require.Equal(t, "gpt-4.1-mini", first.Body["model"])
	require.Equal(t, "Hello!", first.Body["begin_message"])

	second := (*requests)[1]
	require.Equal(t, "Acme Assistant", second.Body["agent_name"])
	require.Equal(t, map[string]any{"type": "retell-llm", "llm_id": "llm_123"}, second.Body["response_engine"])
}

func TestChatSession(t *testing.T) {
	srv, requests := newTestServer(t, map[string]string{
		"/create-chat":            `{"chat_id":"chat_1"}`,
		"/create-chat-completion": `{"messages":[{"role":"agent","content":"first"},{"role":"user","content":"hi"},{"role":"agent","content":"We open at 9."}]}`,
	})
	client := New(Config{APIKey: "key", BaseURL: srv.URL}, zap.NewNop())

	chatID, err := client.CreateChat(context.Background(), "agent_1")
	require.NoError(t, err)
	require.Equal(t, "chat_1", chatID)

	messages, err := client.CreateChatCompletion(context.Background(), chatID, "When do you open?")
	require.NoError(t, err)
	require.Equal(t, "We open at 9.", LastAgentReply(messages))
	require.Equal(t, "When do you open?", (*requests)[1].Body["content"])
	require.Equal(t, "", LastAgentReply([]ChatMessage{{Role: RoleUser, Content: "x"}}))
}

func TestCreateWebCallStringifiesVariables(t *testing.T) {
	srv, requests := newTestServer(t, map[string]string{
		"/v2/create-web-call": `{"access_token":"tok","call_id":"call_9"}`,
	})
	client := New(Config{APIKey: "key", BaseURL: srv.URL}, zap.NewNop())

	call, err := client.CreateWebCall(context.Background(), "agent_1", map[string]any{
		"business_name": "Acme",
		"seats":         3,
		"vip":           true,
		"note":          nil,
	})
	require.NoError(t, err)
	require.Equal(t, WebCall{AccessToken: "tok", CallID: "call_9"}, call)
	require.Equal(t, map[string]any{
		"business_name": "Acme",
		"seats":         "3",
		"vip":           "true",
		"note":          "",
	}, (*requests)[0].Body["retell_llm_dynamic_variables"])
}

func TestMissingAPIKey(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := client.CreateChat(context.Background(), "agent")
	var missing config.MissingCredentialError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "AGENT_PLATFORM_API_KEY", missing.Name)
}

func TestAPIErrorAndInvalidResponse(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/create-chat": `{"chat_id":""}`,
	})
	client := New(Config{APIKey: "key", BaseURL: srv.URL}, zap.NewNop())

	_, err := client.CreateChatAgent(context.Background(), ChatAgentRequest{Name: "x", ResourceID: "y"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "unknown path")

	_, err = client.CreateChat(context.Background(), "agent")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid response")
}
