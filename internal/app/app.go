// Package app wires configuration, services, and handlers into a runnable
// application.
package app

import (
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/common"
	"github.com/trendpin/trendpin/internal/extractor"
	"github.com/trendpin/trendpin/internal/handlers"
	"github.com/trendpin/trendpin/internal/orchestrator"
	"github.com/trendpin/trendpin/internal/publisher"
	"github.com/trendpin/trendpin/internal/sessions"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Sessions     *sessions.Store
	Extractor    *extractor.Service
	Orchestrator *orchestrator.Service

	SessionHandler *handlers.SessionHandler
	JobHandler     *handlers.JobHandler
	APIHandler     *handlers.APIHandler
}

// New builds the application graph and starts background services
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	a.Sessions = sessions.NewStore(cfg.Sessions.TTL.Std(), logger)

	parser, err := extractor.NewParser(cfg.Extractor.BaseURL, logger)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	a.Extractor = extractor.NewService(&cfg.Extractor, parser, rng, logger)

	publisherFactory := publisher.NewFactory(cfg.Publisher.BaseURL, cfg.Publisher.RequestTimeout.Std(), logger)

	a.Orchestrator = orchestrator.NewService(cfg, a.Sessions, a.Extractor, publisherFactory, logger)

	// Closing a session cancels its jobs, including on TTL reap
	a.Sessions.SetCascade(a.Orchestrator.CancelSession)

	a.SessionHandler = handlers.NewSessionHandler(a.Sessions, publisherFactory, cfg.Publisher.MaxBoards, logger)
	a.JobHandler = handlers.NewJobHandler(a.Sessions, a.Orchestrator, logger)
	a.APIHandler = handlers.NewAPIHandler(a.Sessions, a.Orchestrator, logger)

	a.Orchestrator.Start()
	if err := a.Sessions.StartReaper(cfg.Sessions.ReapSchedule); err != nil {
		a.Orchestrator.Stop()
		return nil, err
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("workers", cfg.Orchestrator.Concurrency).
		Msg("Application initialized")

	return a, nil
}

// Close tears down background services in reverse start order
func (a *App) Close() {
	a.Sessions.StopReaper()
	a.Orchestrator.Stop()
	a.Logger.Info().Msg("Application stopped")
}
