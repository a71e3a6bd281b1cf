package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/seedvault/seedvault/internal/api/handlers"
	apimiddleware "github.com/seedvault/seedvault/internal/api/middleware"
	"github.com/seedvault/seedvault/internal/config"
	"github.com/seedvault/seedvault/internal/metrics"
	"github.com/seedvault/seedvault/internal/services"
)

// Dependencies holds all the dependencies needed for the API
type Dependencies struct {
	Config         *config.AppConfig
	DB             *sql.DB
	LicenseService *services.LicenseService
	MetricsManager *metrics.Manager
}

// NewRouter creates and configures the main application router
func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimiddleware.HTTPLogger)
	r.Use(middleware.Compress(5))

	licenseHandler := handlers.NewLicenseHandler(deps.LicenseService)

	// API routes
	r.Route("/api", func(r chi.Router) {
		licenseHandler.RegisterRoutes(r)
	})

	// Prometheus metrics
	if deps.MetricsManager != nil {
		metricsHandler := handlers.NewMetricsHandler(deps.MetricsManager)
		r.Get("/metrics", metricsHandler.ServeMetrics)
	}

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
