// Package sched drives periodic scrape runs.
package sched

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner executes one full scrape run.
type Runner interface {
	RunFullScrape(ctx context.Context) error
}

// Scheduler invokes the runner on a fixed interval.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runOnStart bool
	logger     *zap.Logger
}

// New constructs a Scheduler.
func New(runner Runner, interval time.Duration, runOnStart bool, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Run blocks until ctx is done, triggering scrape runs on the
// configured interval. Run failures are logged, not propagated; one
// bad run must not stop the schedule.
func (s *Scheduler) Run(ctx context.Context) {
	if s.runOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.logger.Info("scheduled scrape starting")
	if err := s.runner.RunFullScrape(ctx); err != nil {
		s.logger.Error("scheduled scrape failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return
	}
	s.logger.Info("scheduled scrape finished", zap.Duration("elapsed", time.Since(start)))
}
