package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/FitScore/internal/assessor"
	"github.com/MikeSquared-Agency/FitScore/internal/identity"
	"github.com/MikeSquared-Agency/FitScore/internal/store"
)

func NewRouter(a *assessor.Assessor, s store.Store, id identity.Client, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(Instrument)
	r.Use(RequestLogger(logger))

	fit := NewFitScoreHandler(a, s, logger)
	adoption := NewAdoptionHandler(a, s, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(id, logger))
		r.Use(RateLimitMiddleware(rateLimit))

		r.Post("/fit-score", fit.Score)
		r.Get("/submissions/{id}/score", fit.Get)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(s, store.RoleConsultant, "only consultants can run adoption audits"))
			r.Post("/adoption/evaluate", adoption.Evaluate)
			r.Post("/adoption/upload", adoption.Upload)
			r.Get("/adoption/audits/{id}", adoption.GetAudit)
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
