package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/models"
	"github.com/trendpin/trendpin/internal/orchestrator"
	"github.com/trendpin/trendpin/internal/sessions"
	"github.com/trendpin/trendpin/internal/vault"
)

// JobHandler manages automation job endpoints
type JobHandler struct {
	sessions     *sessions.Store
	orchestrator *orchestrator.Service
	logger       arbor.ILogger
}

// NewJobHandler creates a job handler
func NewJobHandler(sessionStore *sessions.Store, orch *orchestrator.Service, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		sessions:     sessionStore,
		orchestrator: orch,
		logger:       logger,
	}
}

// requireSession resolves the bearer token to a session, writing the error
// response on failure.
func (h *JobHandler) requireSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sessionID := BearerToken(r)
	if sessionID == "" {
		WriteError(w, http.StatusUnauthorized, "Missing session token")
		return nil, false
	}

	session, err := h.sessions.Lookup(sessionID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Session not found or expired")
		return nil, false
	}
	return session, true
}

// StartAutomationHandler validates the request, re-seals the credentials
// under the session key, and queues the job.
// POST /api/automation
func (h *JobHandler) StartAutomationHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req models.AutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req.Config.ApplyDefaults()
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := json.Marshal(models.EncryptedCredentials{
		PlatformToken: req.Credentials.PlatformToken,
		AffiliateTag:  req.Credentials.AffiliateTag,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to prepare credentials")
		return
	}

	sealed, err := vault.Encrypt(string(payload), session.Key)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to seal job credentials")
		WriteError(w, http.StatusInternalServerError, "Failed to seal credentials")
		return
	}

	job, err := h.orchestrator.Submit(session.ID, sealed, req.Config)
	if err != nil {
		if errors.Is(err, orchestrator.ErrQueueFull) {
			WriteError(w, http.StatusServiceUnavailable, "Job queue full, retry later")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to submit job")
		WriteError(w, http.StatusInternalServerError, "Failed to submit job")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Automation job queued",
	})
}

// ListJobsHandler returns the caller's jobs, newest first.
// GET /api/jobs
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	jobs := h.orchestrator.ListJobs(session.ID)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// JobRoutes dispatches /api/jobs/{id} by method: GET for status, DELETE for
// cancellation.
func (h *JobHandler) JobRoutes(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getJobStatus(w, r, jobID)
	case http.MethodDelete:
		h.cancelJob(w, r, jobID)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *JobHandler) getJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	job, err := h.orchestrator.GetStatus(jobID, session.ID)
	if err != nil {
		writeJobError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

func (h *JobHandler) cancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := h.orchestrator.Cancel(jobID, session.ID); err != nil {
		writeJobError(w, err)
		return
	}

	WriteSuccess(w, "Job cancelled")
}

// writeJobError maps orchestrator errors to HTTP responses
func writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrJobNotFound):
		WriteError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, orchestrator.ErrForbidden):
		WriteError(w, http.StatusForbidden, "Job belongs to another session")
	default:
		WriteError(w, http.StatusInternalServerError, "Job operation failed")
	}
}
