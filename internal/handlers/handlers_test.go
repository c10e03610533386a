package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendpin/trendpin/internal/common"
	"github.com/trendpin/trendpin/internal/interfaces"
	"github.com/trendpin/trendpin/internal/models"
	"github.com/trendpin/trendpin/internal/orchestrator"
	"github.com/trendpin/trendpin/internal/sessions"
)

// stubPublisher satisfies the platform connection check without a network
type stubPublisher struct {
	boards    []models.Board
	boardsErr error
}

func (s *stubPublisher) ListBoards(ctx context.Context) ([]models.Board, error) {
	return s.boards, s.boardsErr
}

func (s *stubPublisher) Publish(ctx context.Context, boardID string, content models.PostContent) (*models.Pin, error) {
	return &models.Pin{ID: "pin-1", URL: "https://pinterest.com/pin/pin-1/"}, nil
}

// stubSource returns one product per category
type stubSource struct{}

func (s *stubSource) FetchTrending(ctx context.Context, category string, maxCount int) ([]models.Product, error) {
	return []models.Product{{
		SourceID:  category + "-1",
		Title:     category + " product",
		DetailURL: "https://www.amazon.com/dp/" + category + "-1",
	}}, nil
}

func (s *stubSource) FetchDetail(ctx context.Context, url string) (*models.ProductDetail, error) {
	return &models.ProductDetail{}, nil
}

type handlerEnv struct {
	sessions *sessions.Store
	orch     *orchestrator.Service
	session  *SessionHandler
	job      *JobHandler
	api      *APIHandler
	pub      *stubPublisher
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	cfg := common.NewDefaultConfig()
	logger := common.GetLogger()

	pub := &stubPublisher{boards: []models.Board{{ID: "board-1", Name: "Deals"}}}
	factory := interfaces.PublisherFactory(func(token string) interfaces.Publisher { return pub })

	sessionStore := sessions.NewStore(time.Minute, logger)
	orch := orchestrator.NewService(cfg, sessionStore, &stubSource{}, factory, logger)
	sessionStore.SetCascade(orch.CancelSession)
	orch.Start()
	t.Cleanup(orch.Stop)

	return &handlerEnv{
		sessions: sessionStore,
		orch:     orch,
		session:  NewSessionHandler(sessionStore, factory, cfg.Publisher.MaxBoards, logger),
		job:      NewJobHandler(sessionStore, orch, logger),
		api:      NewAPIHandler(sessionStore, orch, logger),
		pub:      pub,
	}
}

func (e *handlerEnv) startSession(t *testing.T) (sessionID, sealed string) {
	t.Helper()

	body := `{"platform_token":"token-1234567890","affiliate_tag":"mytag-20","session_passphrase":"a strong passphrase"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	e.session.StartSessionHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		SessionID            string         `json:"session_id"`
		EncryptedCredentials string         `json:"encrypted_credentials"`
		Boards               []models.Board `json:"boards"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	require.NotEmpty(t, resp.EncryptedCredentials)
	require.Len(t, resp.Boards, 1)

	return resp.SessionID, resp.EncryptedCredentials
}

func TestStartSessionHandler_Success(t *testing.T) {
	env := newHandlerEnv(t)
	sessionID, sealed := env.startSession(t)

	assert.NotContains(t, sealed, "token-1234567890", "credentials must not appear in plaintext")
	assert.Equal(t, 1, env.sessions.Count())

	_, err := env.sessions.Lookup(sessionID)
	assert.NoError(t, err)
}

func TestStartSessionHandler_RejectsInvalidCredentials(t *testing.T) {
	env := newHandlerEnv(t)

	body := `{"platform_token":"tiny","affiliate_tag":"mytag-20","session_passphrase":"a strong passphrase"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	env.session.StartSessionHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.sessions.Count(), "no session is opened for rejected credentials")
}

func TestStartSessionHandler_RejectsUnreachablePlatform(t *testing.T) {
	env := newHandlerEnv(t)
	env.pub.boardsErr = fmt.Errorf("401 unauthorized")

	body := `{"platform_token":"token-1234567890","affiliate_tag":"mytag-20","session_passphrase":"a strong passphrase"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	env.session.StartSessionHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.sessions.Count())
}

func TestStartSessionHandler_MethodNotAllowed(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()

	env.session.StartSessionHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEndSessionHandler(t *testing.T) {
	env := newHandlerEnv(t)
	sessionID, _ := env.startSession(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+sessionID)
	rec := httptest.NewRecorder()

	env.session.EndSessionHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.sessions.Count())

	// Second close answers 401: the session is gone
	rec = httptest.NewRecorder()
	env.session.EndSessionHandler(rec, httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func automationBody() string {
	return `{
		"credentials": {
			"platform_token": "token-1234567890",
			"affiliate_tag": "mytag-20",
			"session_passphrase": "a strong passphrase"
		},
		"config": {
			"categories": ["books"],
			"max_items_per_category": 2,
			"post_interval_seconds": 1
		}
	}`
}

func TestStartAutomationHandler_QueuesJob(t *testing.T) {
	env := newHandlerEnv(t)
	sessionID, _ := env.startSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/automation", strings.NewReader(automationBody()))
	req.Header.Set("Authorization", "Bearer "+sessionID)
	rec := httptest.NewRecorder()

	env.job.StartAutomationHandler(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "queued", resp.Status)
}

func TestStartAutomationHandler_RequiresSession(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/automation", strings.NewReader(automationBody()))
	rec := httptest.NewRecorder()

	env.job.StartAutomationHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartAutomationHandler_RejectsInvalidConfig(t *testing.T) {
	env := newHandlerEnv(t)
	sessionID, _ := env.startSession(t)

	body := strings.Replace(automationBody(), `["books"]`, `["gardening"]`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/automation", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sessionID)
	rec := httptest.NewRecorder()

	env.job.StartAutomationHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.orch.ListJobs(sessionID), "invalid requests must not queue jobs")
}

func TestJobRoutes_StatusAndCancel(t *testing.T) {
	env := newHandlerEnv(t)
	sessionID, _ := env.startSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/automation", strings.NewReader(automationBody()))
	req.Header.Set("Authorization", "Bearer "+sessionID)
	rec := httptest.NewRecorder()
	env.job.StartAutomationHandler(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Status
	statusReq := httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.JobID, nil)
	statusReq.Header.Set("Authorization", "Bearer "+sessionID)
	statusRec := httptest.NewRecorder()
	env.job.JobRoutes(statusRec, statusReq)
	require.Equal(t, http.StatusOK, statusRec.Code)

	var job models.Job
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &job))
	assert.Equal(t, created.JobID, job.ID)

	// Cancel
	cancelReq := httptest.NewRequest(http.MethodDelete, "/api/jobs/"+created.JobID, nil)
	cancelReq.Header.Set("Authorization", "Bearer "+sessionID)
	cancelRec := httptest.NewRecorder()
	env.job.JobRoutes(cancelRec, cancelReq)
	assert.Equal(t, http.StatusOK, cancelRec.Code)
}

func TestJobRoutes_ForeignJobHidden(t *testing.T) {
	env := newHandlerEnv(t)
	ownerID, _ := env.startSession(t)
	otherID, _ := env.startSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/automation", strings.NewReader(automationBody()))
	req.Header.Set("Authorization", "Bearer "+ownerID)
	rec := httptest.NewRecorder()
	env.job.StartAutomationHandler(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	statusReq := httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.JobID, nil)
	statusReq.Header.Set("Authorization", "Bearer "+otherID)
	statusRec := httptest.NewRecorder()
	env.job.JobRoutes(statusRec, statusReq)
	assert.Equal(t, http.StatusForbidden, statusRec.Code)
}

func TestHealthHandler(t *testing.T) {
	env := newHandlerEnv(t)
	env.startSession(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	env.api.HealthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(1), resp["active_sessions"])
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", BearerToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", BearerToken(req), "scheme is case-insensitive")

	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, BearerToken(req))
}
