package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/interfaces"
	"github.com/trendpin/trendpin/internal/models"
	"github.com/trendpin/trendpin/internal/sessions"
	"github.com/trendpin/trendpin/internal/vault"
)

// SessionHandler manages credential session endpoints
type SessionHandler struct {
	sessions     *sessions.Store
	newPublisher interfaces.PublisherFactory
	maxBoards    int
	logger       arbor.ILogger
}

// NewSessionHandler creates a session handler
func NewSessionHandler(sessionStore *sessions.Store, newPublisher interfaces.PublisherFactory, maxBoards int, logger arbor.ILogger) *SessionHandler {
	return &SessionHandler{
		sessions:     sessionStore,
		newPublisher: newPublisher,
		maxBoards:    maxBoards,
		logger:       logger,
	}
}

// StartSessionHandler validates credentials against the platform, opens a
// session, and returns the sealed credentials alongside available boards.
// POST /api/sessions
func (h *SessionHandler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := creds.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Prove the token works before opening a session
	pub := h.newPublisher(creds.PlatformToken)
	boards, err := pub.ListBoards(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Platform connection check failed")
		WriteError(w, http.StatusBadRequest, "Platform connection failed, check the access token")
		return
	}
	if len(boards) == 0 {
		WriteError(w, http.StatusBadRequest, "Platform account has no boards, create one first")
		return
	}
	if len(boards) > h.maxBoards {
		boards = boards[:h.maxBoards]
	}

	session, err := h.sessions.Open(creds.SessionPassphrase)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to open session")
		WriteError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	payload, err := json.Marshal(models.EncryptedCredentials{
		PlatformToken: creds.PlatformToken,
		AffiliateTag:  creds.AffiliateTag,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to prepare credentials")
		return
	}

	sealed, err := vault.Encrypt(string(payload), session.Key)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to seal credentials")
		WriteError(w, http.StatusInternalServerError, "Failed to seal credentials")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":            session.ID,
		"encrypted_credentials": sealed,
		"boards":                boards,
		"message":               "Session started, credentials validated",
	})
}

// EndSessionHandler closes the caller's session and cancels its jobs.
// DELETE /api/session
func (h *SessionHandler) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	sessionID := BearerToken(r)
	if sessionID == "" {
		WriteError(w, http.StatusUnauthorized, "Missing session token")
		return
	}

	if err := h.sessions.Close(sessionID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "Session not found or expired")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to close session")
		return
	}

	WriteSuccess(w, "Session closed, active jobs cancelled")
}
