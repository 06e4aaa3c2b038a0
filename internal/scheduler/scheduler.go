// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single run of a job.
const jobTimeout = 5 * time.Minute

// SubscriptionExpirer persists Expired for instances that are past their end
// date or allowance.
type SubscriptionExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	expirer SubscriptionExpirer
	logger  *slog.Logger
}

// New creates a scheduler. Nothing runs until Start.
func New(expirer SubscriptionExpirer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		expirer: expirer,
		logger:  logger,
	}
}

// Start registers the subscription sweep on schedule and starts the cron
// loop. An empty schedule disables the sweep.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		s.logger.Info("subscription expiry sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, s.ExpireSubscriptions); err != nil {
		return fmt.Errorf("failed to schedule subscription expiry sweep %q: %w", schedule, err)
	}
	s.logger.Info("scheduled subscription expiry sweep", "schedule", schedule)
	s.cron.Start()
	return nil
}

// ExpireSubscriptions runs one sweep.
func (s *Scheduler) ExpireSubscriptions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.expirer.ExpireDue(ctx)
	if err != nil {
		s.logger.Error("subscription expiry sweep failed", "error", err)
		return
	}
	s.logger.Info("subscription expiry sweep finished", "expired", n, "duration", time.Since(start).Round(time.Millisecond))
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
