package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes using method-qualified patterns, so
// the mux answers 405 for wrong methods without per-handler checks.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("GET /ws", s.app.WSHandler.HandleWebSocket)

	// Authentication (three-legged OAuth over signed cookies)
	mux.HandleFunc("GET /auth/start", s.app.AuthHandler.StartHandler)
	mux.HandleFunc("GET /auth/callback", s.app.AuthHandler.CallbackHandler)
	mux.HandleFunc("GET /auth/status", s.app.AuthHandler.StatusHandler)
	mux.HandleFunc("POST /auth/logout", s.app.AuthHandler.LogoutHandler)

	// Catalog ingestion
	mux.HandleFunc("POST /sync", s.app.SyncHandler.SyncHandler)

	// API routes - Jobs
	mux.HandleFunc("GET /api/jobs", s.app.JobHandler.ListJobsHandler)
	mux.HandleFunc("GET /api/jobs/{id}", s.app.JobHandler.GetJobHandler)

	// API routes - Countries (materialized rollup)
	mux.HandleFunc("GET /api/countries", s.app.CountryHandler.ListCountriesHandler)

	// API routes - System
	mux.HandleFunc("GET /api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("GET /api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
