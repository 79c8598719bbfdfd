package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/studyspots/studyspots-api/pkg/middleware"
	"github.com/studyspots/studyspots-api/pkg/observability"
)

// SetupRouter configures all routes and returns the HTTP handler.
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cafes", deps.PlaceHandler.GetNearbyCafes)
	mux.HandleFunc("POST /requests", deps.PlaceHandler.RequestCity)

	registerUtilityRoutes(mux, deps)

	// Middleware chain, outermost first.
	var handler http.Handler = mux
	handler = observability.NewMetricsMiddleware()(handler)
	handler = middleware.NewLoggingMiddleware(deps.Logger)(handler)
	handler = middleware.NewRecoveryMiddleware(deps.Logger)(handler)
	handler = middleware.NewRequestIDMiddleware("X-Request-ID")(handler)

	// CORS for browser clients (the frontend is a plain SPA).
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept-Encoding", "Content-Type", "X-Request-ID"},
	})

	return corsHandler.Handler(handler)
}

// registerUtilityRoutes registers health check, metrics, and other utility routes.
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
