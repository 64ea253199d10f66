// Package scheduler runs the screening pipeline on a cron schedule.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Service wraps a cron runner around a single pipeline handler. Overlapping
// firings are skipped rather than queued.
type Service struct {
	cron      *cron.Cron
	logger    arbor.ILogger
	handler   func() error
	mu        sync.Mutex
	isRunning bool
	running   bool
}

// NewService creates a new scheduler service around the given handler.
func NewService(handler func() error, logger arbor.ILogger) *Service {
	return &Service{
		cron:    cron.New(),
		logger:  logger,
		handler: handler,
	}
}

// Start registers the handler under the given cron expression and starts the
// runner.
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		return fmt.Errorf("cron expression is required")
	}

	if _, err := s.cron.AddFunc(cronExpr, s.run); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("cron_expr", cronExpr).Msg("Scheduler started")
	return nil
}

// Stop halts the runner. A run already in flight is left to finish.
func (s *Service) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) run() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping")
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Scheduled run starting")
	if err := s.handler(); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled run failed")
		return
	}
	s.logger.Info().Msg("Scheduled run complete")
}
