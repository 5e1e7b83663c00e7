package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dashboardhttp "github.com/scout-analytics/scout/internal/dashboard/http"
	"github.com/scout-analytics/scout/internal/observability"
	"github.com/scout-analytics/scout/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	DashboardHandler *dashboardhttp.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Scout defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.DashboardHandler != nil {
		params.DashboardHandler.MountRoutes(r)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
