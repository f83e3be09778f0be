package api

import (
	"net/http"

	"github.com/fairline/fairsweep/internal/runner"
	"github.com/fairline/fairsweep/internal/store"
)

type AdminHandler struct {
	store  store.Store
	runner *runner.Runner
}

func NewAdminHandler(s store.Store, run *runner.Runner) *AdminHandler {
	return &AdminHandler{store: s, runner: run}
}

// Stats returns job counts and runner state.
// GET /api/v1/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetJobStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":          stats,
		"runner_paused": h.runner.IsPaused(),
	})
}

// Pause stops the runner from claiming new jobs.
// POST /api/v1/runner/pause
func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.runner.Pause()
	writeJSON(w, http.StatusOK, map[string]interface{}{"runner_paused": true})
}

// Resume lets the runner claim jobs again.
// POST /api/v1/runner/resume
func (h *AdminHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.runner.Resume()
	writeJSON(w, http.StatusOK, map[string]interface{}{"runner_paused": false})
}
