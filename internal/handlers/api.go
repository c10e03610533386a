package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/common"
	"github.com/trendpin/trendpin/internal/orchestrator"
	"github.com/trendpin/trendpin/internal/sessions"
)

// APIHandler serves health, version, and fallback endpoints
type APIHandler struct {
	sessions     *sessions.Store
	orchestrator *orchestrator.Service
	logger       arbor.ILogger
}

// NewAPIHandler creates an API handler
func NewAPIHandler(sessionStore *sessions.Store, orch *orchestrator.Service, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		sessions:     sessionStore,
		orchestrator: orch,
		logger:       logger,
	}
}

// HealthHandler reports service health and activity counts.
// GET /api/health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().Format(time.RFC3339),
		"active_sessions": h.sessions.Count(),
		"active_jobs":     h.orchestrator.CountActive(),
	})
}

// VersionHandler reports build information.
// GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// NotFoundHandler answers unknown API paths with a JSON error
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Endpoint not found")
}
