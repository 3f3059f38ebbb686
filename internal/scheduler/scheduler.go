// Package scheduler repeats the crawl on a cron spec until the process is
// interrupted.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled crawl.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *slog.Logger
}

func New(spec string, job Job, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger.With("component", "scheduler")}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		job:    job,
		logger: logger,
	}
}

// Validate parses a cron spec the way the scheduler will.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run registers the job, runs it once right away and blocks until ctx is
// cancelled. In-flight runs are waited for before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("⏰ scheduler started", "spec", s.spec, "next", s.cron.Entry(id).Next)

	//the wrapped job shares the skip-if-running guard with cron ticks
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.cron.Entry(id).WrappedJob.Run()
	}()

	<-ctx.Done()
	stopped := s.cron.Stop()
	wg.Wait()
	<-stopped.Done()
	s.logger.Info("⏰ scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("🚀 scheduled crawl started")
	if err := s.job(ctx); err != nil {
		s.logger.Error("❌ scheduled crawl failed", "error", err)
		return
	}
	s.logger.Info("✅ scheduled crawl complete")
}

// cronLogger sends cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
