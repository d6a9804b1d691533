package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/pipeline"
	"github.com/MartialAndCo/berinia-bot/internal/store"
	"github.com/MartialAndCo/berinia-bot/internal/workflows"
)

// generateRequest accepts recordId as an alias of leadId.
type generateRequest struct {
	URL      string `json:"url"`
	LeadID   string `json:"leadId"`
	RecordID string `json:"recordId"`
}

func (g generateRequest) lead() string {
	if lead := strings.TrimSpace(g.LeadID); lead != "" {
		return lead
	}
	return strings.TrimSpace(g.RecordID)
}

type generateResponse struct {
	Status      string `json:"status"`
	ProjectID   string `json:"projectId"`
	PreviewURL  string `json:"previewUrl"`
	AgentID     string `json:"agentId"`
	CompanyName string `json:"companyName"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	req := generateRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required", nil)
		return
	}

	res, err := s.generator.Generate(r.Context(), pipeline.Request{
		URL:     req.URL,
		LeadID:  req.lead(),
		BaseURL: pipeline.ResolveBaseURL(s.cfg.PublicBaseURL, r, s.cfg.DefaultBaseURL),
	})
	if err != nil {
		s.logger.Error("generation failed", zap.String("url", req.URL), zap.String("lead_id", req.lead()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate preview", err)
		return
	}
	writeJSON(w, generateResponse{
		Status:      "success",
		ProjectID:   res.ProjectID,
		PreviewURL:  res.PreviewURL,
		AgentID:     res.AgentID,
		CompanyName: res.CompanyName,
	})
}

func (s *Server) generateAsync(w http.ResponseWriter, r *http.Request) {
	if s.workflows == nil {
		writeError(w, http.StatusServiceUnavailable, "Async generation is not enabled", nil)
		return
	}
	req := generateRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required", nil)
		return
	}
	exec, err := s.workflows.StartGenerate(r.Context(), workflows.GenerateInput{
		URL:     req.URL,
		LeadID:  req.lead(),
		BaseURL: pipeline.ResolveBaseURL(s.cfg.PublicBaseURL, r, s.cfg.DefaultBaseURL),
	})
	if err != nil {
		s.logger.Error("start generate workflow failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to start generation", err)
		return
	}
	writeJSONStatus(w, exec, http.StatusAccepted)
}

// generateAsyncResult waits for the workflow and answers with the same body
// as the synchronous endpoint. An empty run id selects the latest run.
func (s *Server) generateAsyncResult(w http.ResponseWriter, r *http.Request) {
	if s.workflows == nil {
		writeError(w, http.StatusServiceUnavailable, "Async generation is not enabled", nil)
		return
	}
	workflowID := chi.URLParam(r, "workflowID")
	runID := chi.URLParam(r, "runID")
	res, err := s.workflows.GetResult(r.Context(), workflowID, runID)
	if err != nil {
		s.logger.Error("generate workflow failed", zap.String("workflow_id", workflowID), zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate preview", err)
		return
	}
	writeJSON(w, generateResponse{
		Status:      "success",
		ProjectID:   res.ProjectID,
		PreviewURL:  res.PreviewURL,
		AgentID:     res.AgentID,
		CompanyName: res.CompanyName,
	})
}

type projectResponse struct {
	ProjectID   string `json:"projectId"`
	URL         string `json:"url"`
	CompanyName string `json:"companyName"`
	AgentID     string `json:"agentId"`
	DemoURL     string `json:"demoUrl"`
	Status      string `json:"status"`
	LeadID      string `json:"leadId,omitempty"`
	CreatedTime string `json:"createdTime,omitempty"`
}

func toProjectResponse(p store.Project) projectResponse {
	resp := projectResponse{
		ProjectID:   p.ID,
		URL:         p.URL,
		CompanyName: p.CompanyName,
		AgentID:     p.AgentID,
		DemoURL:     p.DemoURL,
		Status:      string(p.Status),
		LeadID:      p.LinkedLeadID,
	}
	if !p.CreatedTime.IsZero() {
		resp.CreatedTime = p.CreatedTime.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "not found", nil)
		return
	}
	if project.Status == store.StatusInactive {
		writeJSONStatus(w, map[string]string{"error": "expired", "projectId": project.ID}, http.StatusGone)
		return
	}
	writeJSON(w, toProjectResponse(*project))
}
