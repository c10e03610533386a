package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/common"
)

// ErrQueueFull is returned when the pending queue cannot accept another job
var ErrQueueFull = errors.New("orchestrator: job queue full")

// Pool runs queued job ids across a fixed set of workers. A panicking job is
// contained to its worker; the goroutine keeps serving the queue.
type Pool struct {
	tasks   chan string
	execute func(jobID string)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	concurrency int
	logger      arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewPool creates a worker pool that calls execute for each enqueued job id
func NewPool(concurrency, queueSize int, execute func(jobID string), logger arbor.ILogger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		tasks:       make(chan string, queueSize),
		execute:     execute,
		ctx:         ctx,
		cancel:      cancel,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info().Int("concurrency", p.concurrency).Msg("Job pool started")
}

// Stop signals workers to exit and waits for in-flight jobs to return
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.logger.Info().Msg("Job pool stopped")
}

// Enqueue adds a job id to the pending queue without blocking
func (p *Pool) Enqueue(jobID string) error {
	select {
	case p.tasks <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case jobID := <-p.tasks:
			p.runSafely(id, jobID)
		}
	}
}

// runSafely executes one job with panic containment
func (p *Pool) runSafely(workerID int, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker", workerID).
				Str("job_id", jobID).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Job panicked in worker")
		}
	}()

	p.execute(jobID)
}
