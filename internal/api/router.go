package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairline/fairsweep/internal/config"
	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/runner"
	"github.com/fairline/fairsweep/internal/store"
)

func NewRouter(s store.Store, ev events.Client, run *runner.Runner, cfg *config.Config, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMinute))

	jobs := NewJobsHandler(s, ev, cfg)
	front := NewFrontierHandler()
	admin := NewAdminHandler(s, run)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIDMiddleware)

		r.Post("/jobs", jobs.Create)
		r.Get("/jobs", jobs.List)
		r.Get("/jobs/{id}", jobs.Get)
		r.Post("/jobs/{id}/cancel", jobs.Cancel)
		r.Get("/jobs/{id}/frontier", jobs.Frontier)
		r.Get("/jobs/{id}/predictions", jobs.Predictions)

		r.Post("/frontier", front.Compute)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/stats", admin.Stats)
			r.Post("/runner/pause", admin.Pause)
			r.Post("/runner/resume", admin.Resume)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
