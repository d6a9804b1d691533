package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/agentplatform"
)

const noReply = "I didn't catch that."

type chatMessageRequest struct {
	Message string `json:"message"`
	AgentID string `json:"agentId"`
	ChatID  string `json:"chatId"`
}

type chatMessageResponse struct {
	Response string `json:"response"`
	ChatID   string `json:"chatId"`
}

func (s *Server) chatMessage(w http.ResponseWriter, r *http.Request) {
	req := chatMessageRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required", nil)
		return
	}
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		agentID = s.cfg.ChatAgentID
	}

	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		if agentID == "" {
			writeError(w, http.StatusBadRequest, "Agent ID is required", nil)
			return
		}
		created, err := s.agents.CreateChat(r.Context(), agentID)
		if err != nil {
			s.logger.Error("create chat failed", zap.String("agent_id", agentID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to communicate with Retell AI", err)
			return
		}
		chatID = created
	}

	messages, err := s.agents.CreateChatCompletion(r.Context(), chatID, req.Message)
	if err != nil {
		s.logger.Error("chat completion failed", zap.String("chat_id", chatID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to communicate with Retell AI", err)
		return
	}
	reply := agentplatform.LastAgentReply(messages)
	if reply == "" {
		reply = noReply
	}
	writeJSON(w, chatMessageResponse{Response: reply, ChatID: chatID})
}

type registerCallRequest struct {
	AgentID          string         `json:"agentId"`
	DynamicVariables map[string]any `json:"dynamicVariables"`
}

type registerCallResponse struct {
	AccessToken string `json:"accessToken"`
	CallID      string `json:"callId"`
}

func (s *Server) registerCall(w http.ResponseWriter, r *http.Request) {
	req := registerCallRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "Agent ID is required", nil)
		return
	}
	call, err := s.agents.CreateWebCall(r.Context(), agentID, req.DynamicVariables)
	if err != nil {
		s.logger.Error("register call failed", zap.String("agent_id", agentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to register call", err)
		return
	}
	writeJSON(w, registerCallResponse{AccessToken: call.AccessToken, CallID: call.CallID})
}
