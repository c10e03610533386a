package orchestrator

import (
	"sort"
	"sync"
	"time"

	"github.com/trendpin/trendpin/internal/models"
)

// Store is the in-memory job registry. All reads return deep copies so
// callers never observe a job mid-mutation.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*models.Job),
	}
}

// Put registers a job
func (s *Store) Put(job *models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot of the job
func (s *Store) Get(id string) (*models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// ListBySession returns snapshots of the session's jobs, newest first
func (s *Store) ListBySession(sessionID string) []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []*models.Job
	for _, job := range s.jobs {
		if job.SessionID == sessionID {
			jobs = append(jobs, job.Clone())
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// ActiveJobIDsBySession returns ids of the session's non-terminal jobs
func (s *Store) ActiveJobIDsBySession(sessionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, job := range s.jobs {
		if job.SessionID == sessionID && !job.Status.IsTerminal() {
			ids = append(ids, job.ID)
		}
	}
	return ids
}

// CountActive returns the number of non-terminal jobs
func (s *Store) CountActive() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, job := range s.jobs {
		if !job.Status.IsTerminal() {
			count++
		}
	}
	return count
}

// MarkRunning transitions queued -> running. Returns false if the job is
// missing or no longer queued, which covers a cancel that raced the worker.
func (s *Store) MarkRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != models.JobStatusQueued {
		return false
	}
	job.MarkStarted()
	return true
}

// MarkCompleted transitions running -> completed with final results.
// A job cancelled mid-run keeps its cancelled status.
func (s *Store) MarkCompleted(id string, results *models.JobResults) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != models.JobStatusRunning {
		return false
	}
	job.MarkCompleted(results)
	return true
}

// MarkFailed transitions a non-terminal job to failed
func (s *Store) MarkFailed(id string, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return false
	}
	job.MarkFailed(errMsg)
	return true
}

// MarkCancelled transitions a non-terminal job to cancelled
func (s *Store) MarkCancelled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return false
	}
	job.MarkCancelled()
	return true
}

// IsCancelled reports whether the job was cancelled
func (s *Store) IsCancelled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	return ok && job.Status == models.JobStatusCancelled
}

// UpdateProgress records the category the run is entering. Progress only
// moves forward; completion forces it to 100.
func (s *Store) UpdateProgress(id, currentCategory string, completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != models.JobStatusRunning {
		return
	}

	job.Progress.CurrentCategory = currentCategory
	job.Progress.CompletedCategories = completed
	job.Progress.TotalCategories = total
	if total > 0 {
		percent := float64(completed) / float64(total) * 100
		if percent > job.Progress.OverallProgress {
			job.Progress.OverallProgress = percent
		}
	}
	job.UpdatedAt = time.Now()
}

// SetResults stores intermediate results on a running job
func (s *Store) SetResults(id string, results *models.JobResults) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != models.JobStatusRunning {
		return
	}
	job.Results = results.Clone()
	job.UpdatedAt = time.Now()
}
