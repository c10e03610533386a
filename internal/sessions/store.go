// Package sessions holds the in-memory session registry. Sessions carry the
// derived credential key; closing or reaping a session discards the key and
// cascades to the owner's jobs.
package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/models"
	"github.com/trendpin/trendpin/internal/vault"
)

// ErrNotFound is returned when a session id is unknown or already closed
var ErrNotFound = errors.New("sessions: session not found")

// CascadeFunc is invoked with the session id after a session is removed,
// outside the store lock.
type CascadeFunc func(sessionID string)

// Store is a thread-safe in-memory session registry with idle expiry
type Store struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	onClose  CascadeFunc
	reaper   *cron.Cron
	logger   arbor.ILogger
}

// NewStore creates a session store with the given idle TTL
func NewStore(ttl time.Duration, logger arbor.ILogger) *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// SetCascade registers the callback run when a session is closed or reaped
func (s *Store) SetCascade(fn CascadeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = fn
}

// Open derives a session key from the passphrase and registers a new session
func (s *Store) Open(passphrase string) (*models.Session, error) {
	key, salt, err := vault.DeriveKey(passphrase, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:        id,
		Key:       key,
		Salt:      salt,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[id] = session
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", id).
		Int("active_sessions", count).
		Msg("Session opened")

	return session, nil
}

// Lookup returns the session and refreshes its idle timer
func (s *Store) Lookup(id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	session.LastSeen = time.Now()
	return session, nil
}

// Close removes a session and cascades to its jobs
func (s *Store) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	cascade := s.onClose
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	s.logger.Info().Str("session_id", id).Msg("Session closed")

	if cascade != nil {
		cascade(id)
	}
	return nil
}

// Count returns the number of active sessions
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartReaper schedules periodic expiry of idle sessions
func (s *Store) StartReaper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, s.Reap); err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}
	c.Start()

	s.mu.Lock()
	s.reaper = c
	s.mu.Unlock()

	s.logger.Info().Str("schedule", schedule).Msg("Session reaper started")
	return nil
}

// StopReaper stops the expiry schedule
func (s *Store) StopReaper() {
	s.mu.Lock()
	c := s.reaper
	s.reaper = nil
	s.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}

// Reap removes sessions idle longer than the TTL and cascades each removal
func (s *Store) Reap() {
	now := time.Now()

	s.mu.Lock()
	var expired []string
	for id, session := range s.sessions {
		if session.Expired(s.ttl, now) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	cascade := s.onClose
	s.mu.Unlock()

	if len(expired) == 0 {
		return
	}

	s.logger.Info().Int("count", len(expired)).Msg("Reaped expired sessions")

	if cascade != nil {
		for _, id := range expired {
			cascade(id)
		}
	}
}

// newSessionID returns a 32-byte random token, base64 URL-safe encoded
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
