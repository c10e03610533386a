package server

import (
	"net/http"
)

// setupRoutes registers all API endpoints
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Sessions
	mux.HandleFunc("/api/sessions", s.app.SessionHandler.StartSessionHandler)
	mux.HandleFunc("/api/session", s.app.SessionHandler.EndSessionHandler)

	// Automation jobs
	mux.HandleFunc("/api/automation", s.app.JobHandler.StartAutomationHandler)
	mux.HandleFunc("/api/jobs", s.app.JobHandler.ListJobsHandler)
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.JobRoutes)

	// Service endpoints
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// Fallback for unknown API paths
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
