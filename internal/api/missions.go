package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MartialAndCo/berinia-bot/internal/jobs"
	"github.com/MartialAndCo/berinia-bot/internal/store"
)

var validate = validator.New()

type missionResponse struct {
	ID        string `json:"id"`
	Keyword   string `json:"keyword"`
	Location  string `json:"location"`
	MaxLeads  int    `json:"maxLeads"`
	Status    string `json:"status"`
	LastRunAt string `json:"lastRunAt,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toMissionResponse(m store.Mission) missionResponse {
	resp := missionResponse{
		ID:        m.ID,
		Keyword:   m.Keyword,
		Location:  m.Location,
		MaxLeads:  m.MaxLeads,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.LastRunAt != nil {
		resp.LastRunAt = m.LastRunAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// createMissionRequest leaves MaxLeads nil when omitted so the store default
// applies; an explicit value must be in range.
type createMissionRequest struct {
	Keyword  string `json:"keyword" validate:"required"`
	Location string `json:"location" validate:"required"`
	MaxLeads *int   `json:"maxLeads" validate:"omitempty,gte=1,lte=500"`
}

func (c createMissionRequest) maxLeads() int {
	if c.MaxLeads == nil {
		return store.DefaultMaxLeads
	}
	return *c.MaxLeads
}

func (s *Server) listMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.store.ListMissions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list missions", err)
		return
	}
	out := make([]missionResponse, 0, len(missions))
	for _, m := range missions {
		out = append(out, toMissionResponse(m))
	}
	writeJSON(w, map[string]any{"missions": out})
}

func (s *Server) createMission(w http.ResponseWriter, r *http.Request) {
	req := createMissionRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.Location = strings.TrimSpace(req.Location)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid mission", err)
		return
	}
	id, err := s.store.CreateMission(r.Context(), store.Mission{
		Keyword:  req.Keyword,
		Location: req.Location,
		MaxLeads: req.maxLeads(),
		Status:   store.MissionActive,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create mission", err)
		return
	}
	writeJSONStatus(w, map[string]any{"success": true, "id": id}, http.StatusCreated)
}

func (s *Server) toggleMission(w http.ResponseWriter, r *http.Request) {
	missionID := chi.URLParam(r, "id")
	mission, err := s.store.GetMission(r.Context(), missionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load mission", err)
		return
	}
	if mission == nil {
		writeError(w, http.StatusNotFound, "not found", nil)
		return
	}
	next := store.MissionActive
	if mission.Status == store.MissionActive {
		next = store.MissionInactive
	}
	if err := s.store.SetMissionStatus(r.Context(), missionID, next); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update mission", err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "id": missionID, "status": next})
}

func (s *Server) deleteMission(w http.ResponseWriter, r *http.Request) {
	missionID := chi.URLParam(r, "id")
	if err := s.store.DeleteMission(r.Context(), missionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete mission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCrawlRuns(w http.ResponseWriter, r *http.Request) {
	limit := jobs.DefaultRunLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		limit = parsed
	}
	if s.runs == nil {
		writeJSON(w, map[string]any{"runs": []jobs.RunSummary{}})
		return
	}
	writeJSON(w, map[string]any{"runs": s.runs.RecentRuns(r.Context(), limit)})
}
