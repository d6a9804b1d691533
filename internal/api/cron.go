package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorizedCron checks the bearer secret. With no secret configured the
// result is allowIfUnset.
func (s *Server) authorizedCron(r *http.Request, allowIfUnset bool) bool {
	secret := strings.TrimSpace(s.cfg.CronSecret)
	if secret == "" {
		return allowIfUnset
	}
	want := "Bearer " + secret
	got := r.Header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (s *Server) triggerMissions(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCron(r, false) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	report, err := s.trigger.TriggerAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to trigger missions", err)
		return
	}
	if report.Count == 0 {
		writeJSON(w, map[string]any{"message": "No active missions found", "count": 0})
		return
	}
	writeJSON(w, map[string]any{
		"message": "Scraping missions triggered",
		"count":   report.Count,
		"results": report.Results,
	})
}

func (s *Server) expireProjects(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCron(r, true) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	report, err := s.sweep.Run(r.Context(), s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to expire projects", err)
		return
	}
	writeJSON(w, map[string]any{
		"success": true,
		"message": "Processed expiration check.",
		"stats": map[string]int{
			"totalChecked": report.TotalChecked,
			"expiredFound": report.ExpiredFound,
			"deactivated":  report.Deactivated,
			"failed":       report.Failed,
		},
		"expiredIds": report.ExpiredIDs,
	})
}
