package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of an automation job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal returns true if the status is a final state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobProgress tracks how far an automation run has advanced
type JobProgress struct {
	CurrentCategory     string  `json:"current_category,omitempty"`
	CompletedCategories int     `json:"completed_categories"`
	TotalCategories     int     `json:"total_categories"`
	OverallProgress     float64 `json:"overall_progress"`
}

// CreatedPin identifies a single published pin in the job results
type CreatedPin struct {
	ProductTitle string `json:"product_title"`
	PinID        string `json:"pin_id"`
	PinURL       string `json:"pin_url"`
}

// CategoryResult aggregates the outcome of one category pass
type CategoryResult struct {
	ProductsFound int          `json:"products_found"`
	PinsCreated   int          `json:"pins_created"`
	Errors        int          `json:"errors"`
	SuccessRate   float64      `json:"success_rate"`
	CreatedPins   []CreatedPin `json:"created_pins"`
	Error         string       `json:"error,omitempty"`
}

// JobResults aggregates the outcome of a whole automation run
type JobResults struct {
	TotalProductsFound int                        `json:"total_products_found"`
	TotalPinsCreated   int                        `json:"total_pins_created"`
	TotalErrors        int                        `json:"total_errors"`
	DailyLimitReached  bool                       `json:"daily_limit_reached,omitempty"`
	CategoryResults    map[string]*CategoryResult `json:"category_results"`
}

// NewJobResults returns an empty results accumulator
func NewJobResults() *JobResults {
	return &JobResults{
		CategoryResults: make(map[string]*CategoryResult),
	}
}

// Job is one automation run owned by a session. Credentials are stored only
// in encrypted form; decryption requires the owning session's key.
type Job struct {
	ID                   string           `json:"job_id"`
	SessionID            string           `json:"-"`
	Status               JobStatus        `json:"status"`
	Progress             JobProgress      `json:"progress"`
	Config               AutomationConfig `json:"-"`
	EncryptedCredentials string           `json:"-"`
	Results              *JobResults      `json:"results,omitempty"`
	Error                string           `json:"error,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	StartedAt            *time.Time       `json:"started_at,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
}

// NewJob creates a queued job for the given session
func NewJob(sessionID, encryptedCredentials string, config AutomationConfig) *Job {
	now := time.Now()
	return &Job{
		ID:                   uuid.New().String(),
		SessionID:            sessionID,
		Status:               JobStatusQueued,
		Config:               config,
		EncryptedCredentials: encryptedCredentials,
		Progress: JobProgress{
			TotalCategories: len(config.Categories),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkStarted transitions the job to running
func (j *Job) MarkStarted() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkCompleted transitions the job to completed with final results
func (j *Job) MarkCompleted(results *JobResults) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Results = results
	j.Progress.CompletedCategories = j.Progress.TotalCategories
	j.Progress.CurrentCategory = ""
	j.Progress.OverallProgress = 100
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed transitions the job to failed with an error message
func (j *Job) MarkFailed(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.Error = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkCancelled transitions the job to cancelled
func (j *Job) MarkCancelled() {
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Clone returns a deep copy safe to hand out across goroutines
func (j *Job) Clone() *Job {
	copied := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		copied.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		copied.CompletedAt = &t
	}
	if j.Results != nil {
		copied.Results = j.Results.Clone()
	}
	copied.Config.Categories = append([]string(nil), j.Config.Categories...)
	return &copied
}

// Clone returns a deep copy of the results
func (r *JobResults) Clone() *JobResults {
	if r == nil {
		return nil
	}
	copied := &JobResults{
		TotalProductsFound: r.TotalProductsFound,
		TotalPinsCreated:   r.TotalPinsCreated,
		TotalErrors:        r.TotalErrors,
		DailyLimitReached:  r.DailyLimitReached,
		CategoryResults:    make(map[string]*CategoryResult, len(r.CategoryResults)),
	}
	for name, cr := range r.CategoryResults {
		crCopy := *cr
		crCopy.CreatedPins = append([]CreatedPin(nil), cr.CreatedPins...)
		copied.CategoryResults[name] = &crCopy
	}
	return copied
}
