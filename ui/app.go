package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gosvca/app"
	"gosvca/internal"
	"gosvca/ports"
)

// App represents the HTTP application
type App struct {
	router   *chi.Mux
	analysis *app.AnalysisService
	sweeps   *app.SweepService
	runs     ports.RunRepository
	logger   *internal.Logger
}

// Config holds HTTP application configuration
type Config struct {
	Port string
}

// NewApp creates a new HTTP application
func NewApp(analysis *app.AnalysisService, sweeps *app.SweepService, runs ports.RunRepository, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:   chi.NewRouter(),
		analysis: analysis,
		sweeps:   sweeps,
		runs:     runs,
		logger:   logger,
	}
	a.setupRoutes()
	return a
}

// setupRoutes configures all HTTP routes
func (a *App) setupRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)

	a.router.Get("/healthz", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		r.Post("/runs", a.handleCreateRun)
		r.Post("/sweeps", a.handleCreateSweep)
		r.Get("/runs", a.handleListRuns)
		r.Get("/runs/{id}", a.handleGetRun)
		r.Get("/runs/{id}/report", a.handleRunReport)
		r.Get("/runs/{id}/export", a.handleRunExport)
	})
}

// Router returns the configured router
func (a *App) Router() http.Handler {
	return a.router
}

// Start begins serving HTTP requests
func (a *App) Start(config Config) error {
	addr := ":" + config.Port
	a.logger.Info("starting server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
