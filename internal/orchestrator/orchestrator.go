// Package orchestrator owns the async job lifecycle: submission, worker
// execution, progress tracking, cancellation, and session cascade.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/common"
	"github.com/trendpin/trendpin/internal/interfaces"
	"github.com/trendpin/trendpin/internal/models"
	"github.com/trendpin/trendpin/internal/sessions"
)

var (
	// ErrJobNotFound is returned when a job id is unknown
	ErrJobNotFound = errors.New("orchestrator: job not found")

	// ErrForbidden is returned when a job belongs to another session
	ErrForbidden = errors.New("orchestrator: job owned by another session")
)

// Service coordinates automation jobs end to end
type Service struct {
	store        *Store
	pool         *Pool
	sessions     *sessions.Store
	source       interfaces.ProductSource
	newPublisher interfaces.PublisherFactory

	catalogDomain string
	logger        arbor.ILogger

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// NewService wires the orchestrator with its worker pool
func NewService(
	cfg *common.Config,
	sessionStore *sessions.Store,
	source interfaces.ProductSource,
	newPublisher interfaces.PublisherFactory,
	logger arbor.ILogger,
) *Service {
	s := &Service{
		store:         NewStore(),
		sessions:      sessionStore,
		source:        source,
		newPublisher:  newPublisher,
		catalogDomain: catalogDomain(cfg.Extractor.BaseURL),
		logger:        logger,
		cancels:       make(map[string]context.CancelFunc),
	}
	s.pool = NewPool(cfg.Orchestrator.Concurrency, cfg.Orchestrator.QueueSize, s.execute, logger)
	return s
}

// Start launches the worker pool
func (s *Service) Start() {
	s.pool.Start()
}

// Stop drains the worker pool. Running jobs are cancelled first so shutdown
// does not wait out long post intervals.
func (s *Service) Stop() {
	s.cancelMu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancelMu.Unlock()

	s.pool.Stop()
}

// Submit validates nothing; callers validate before encrypting. The job is
// stored queued and handed to the pool.
func (s *Service) Submit(sessionID, encryptedCredentials string, config models.AutomationConfig) (*models.Job, error) {
	job := models.NewJob(sessionID, encryptedCredentials, config)
	s.store.Put(job)

	if err := s.pool.Enqueue(job.ID); err != nil {
		s.store.MarkFailed(job.ID, "job queue full")
		return nil, err
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("categories", len(config.Categories)).
		Msg("Job queued")

	snapshot, _ := s.store.Get(job.ID)
	return snapshot, nil
}

// GetStatus returns a job snapshot after an ownership check
func (s *Service) GetStatus(jobID, sessionID string) (*models.Job, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.SessionID != sessionID {
		return nil, ErrForbidden
	}
	return job, nil
}

// ListJobs returns the session's jobs, newest first
func (s *Service) ListJobs(sessionID string) []*models.Job {
	return s.store.ListBySession(sessionID)
}

// Cancel stops a queued or running job after an ownership check.
// Cancelling a terminal job is a no-op.
func (s *Service) Cancel(jobID, sessionID string) error {
	job, ok := s.store.Get(jobID)
	if !ok {
		return ErrJobNotFound
	}
	if job.SessionID != sessionID {
		return ErrForbidden
	}

	if s.store.MarkCancelled(jobID) {
		s.logger.Info().Str("job_id", jobID).Msg("Job cancelled")
	}
	s.signalCancel(jobID)
	return nil
}

// CancelSession cancels all active jobs owned by the session. Registered as
// the session store's cascade, so it also runs on TTL reap.
func (s *Service) CancelSession(sessionID string) {
	ids := s.store.ActiveJobIDsBySession(sessionID)
	for _, id := range ids {
		s.store.MarkCancelled(id)
		s.signalCancel(id)
	}
	if len(ids) > 0 {
		s.logger.Info().
			Str("session_id", sessionID).
			Int("count", len(ids)).
			Msg("Session jobs cancelled")
	}
}

// CountActive returns the number of non-terminal jobs
func (s *Service) CountActive() int {
	return s.store.CountActive()
}

func (s *Service) registerCancel(jobID string, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	s.cancels[jobID] = cancel
}

func (s *Service) unregisterCancel(jobID string) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	delete(s.cancels, jobID)
}

func (s *Service) signalCancel(jobID string) {
	s.cancelMu.Lock()
	cancel, ok := s.cancels[jobID]
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// catalogDomain extracts the host used for canonical affiliate links
func catalogDomain(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "www.amazon.com"
	}
	return parsed.Host
}

// execute is the pool callback for one job id
func (s *Service) execute(jobID string) {
	if !s.store.MarkRunning(jobID) {
		// Cancelled while queued, or unknown id
		s.logger.Debug().Str("job_id", jobID).Msg("Skipping job not in queued state")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.registerCancel(jobID, cancel)
	defer func() {
		s.unregisterCancel(jobID)
		cancel()
	}()

	jobLogger := s.logger.WithCorrelationId(jobID)

	defer func() {
		if r := recover(); r != nil {
			s.store.MarkFailed(jobID, fmt.Sprintf("internal error: %v", r))
			jobLogger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Job run panicked")
		}
	}()

	s.run(ctx, jobID, jobLogger)
}
