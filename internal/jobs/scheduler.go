// Package jobs runs periodic background work: payment reminders and
// eviction of expired in-process rate-limit windows.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/atom-referral-tracker/internal/logger"
)

// jobTimeout bounds a single run so a stuck store cannot pile up runs.
const jobTimeout = 2 * time.Minute

// Scheduler wraps a cron instance with seconds precision in UTC.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)}
}

// Register adds fn under name at the given cron spec. Panics inside fn are
// logged and do not stop the scheduler.
func (s *Scheduler) Register(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() { runWithRecovery(name, fn) })
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	logger.Info("job registered", "job", name, "spec", spec)
	return nil
}

func runWithRecovery(name string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "job", name, "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	start := time.Now()
	if err := fn(ctx); err != nil {
		logger.Error("job failed", "job", name, "error", err, "took", time.Since(start))
		return
	}
	logger.Debug("job finished", "job", name, "took", time.Since(start))
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("cron scheduler started", "jobs", s.Len())
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("cron scheduler stopped")
}
