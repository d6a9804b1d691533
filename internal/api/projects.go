package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MartialAndCo/berinia-bot/internal/store"
)

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, map[string]any{"projects": out})
}

type statusRequest struct {
	Status string `json:"status"`
}

// updateProjectStatus sets the given status, or toggles it when the body
// names none.
func (s *Server) updateProjectStatus(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	req := statusRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := store.ProjectStatus(strings.TrimSpace(req.Status))
	if status == "" {
		project, err := s.store.GetProject(r.Context(), projectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load project", err)
			return
		}
		if project == nil {
			writeError(w, http.StatusNotFound, "not found", nil)
			return
		}
		status = store.StatusInactive
		if project.Status != store.StatusActive {
			status = store.StatusActive
		}
	}
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	if err := s.store.SetStatus(r.Context(), projectID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update project", err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "projectId": projectID, "status": status})
}
