// Package scheduler wraps gocron for the engine's recurring jobs: the
// retention sweep and subscription reconciliation. Jobs never run on
// user-facing request paths.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Scheduler struct {
	inner  gocron.Scheduler
	logger *slog.Logger
}

// New creates a stopped UTC scheduler; call Start after registering jobs.
func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{inner: s, logger: logger}, nil
}

// AddCron registers a named job on a cron expression.
func (s *Scheduler) AddCron(name, cronExpr string, job func()) error {
	_, err := s.inner.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(job),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}
	s.logger.Info("job scheduled", "name", name, "cron", cronExpr)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.inner.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	if err := s.inner.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}
