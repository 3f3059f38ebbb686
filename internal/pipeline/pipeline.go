// Package pipeline runs one complete crawl: seed from the snapshot, crawl
// every configured board, then persist and notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPico/job-offer-analyzer/internal/ai"
	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/crawl"
	"github.com/MichaelPico/job-offer-analyzer/internal/database"
	"github.com/MichaelPico/job-offer-analyzer/internal/enrich"
	"github.com/MichaelPico/job-offer-analyzer/internal/export"
	"github.com/MichaelPico/job-offer-analyzer/internal/filter"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper/indeed"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper/linkedin"
	"github.com/MichaelPico/job-offer-analyzer/internal/snapshot"
)

// FetcherFactory opens the fetcher a board needs. The returned close func
// is called once the board is done.
type FetcherFactory func(board string) (scraper.Fetcher, func() error, error)

// RunStore persists a finished crawl.
type RunStore interface {
	SaveRun(ctx context.Context, run database.Run, records []models.JobRecord) error
}

// Notifier announces new records and the crawl summary.
type Notifier interface {
	SendJob(job models.JobRecord) error
	SendSummary(results []*crawl.Result) error
}

// Deps are the collaborators of a run. Store and Notifier are optional;
// Completer is only used when AI analysis is enabled.
type Deps struct {
	Detector  enrich.Detector
	Completer ai.Completer
	Fetchers  FetcherFactory
	Sleeper   crawl.Sleeper
	Store     RunStore
	Notifier  Notifier
	Now       func() time.Time
	//NewBoard defaults to the LinkedIn and Indeed boards
	NewBoard func(name string, cfg config.Crawl) (scraper.Board, error)
}

// Summary describes one finished (or interrupted) run.
type Summary struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*crawl.Result
	Seeded     int
	Records    []models.JobRecord
	NewRecords []models.JobRecord
	TokenCost  int
}

// NewBoard maps a configured board name to its implementation.
func NewBoard(name string, cfg config.Crawl) (scraper.Board, error) {
	switch name {
	case "linkedin":
		return linkedin.NewBoard(cfg), nil
	case "indeed":
		return indeed.NewBoard(cfg, ""), nil
	}
	return nil, fmt.Errorf("unknown board %q", name)
}

// promptOptions narrows extraction for boards whose listings already carry
// salary and skills.
func promptOptions(board string, cfg config.AI) ai.PromptOptions {
	if board == "indeed" {
		return ai.PromptOptions{SkipSalary: true, SkipTechnologies: true}
	}
	return ai.PromptOptionsFrom(cfg)
}

// Run executes one crawl. Records admitted before a cancellation are still
// saved; the returned error then wraps ctx.Err().
func Run(ctx context.Context, cfg *config.Config, deps Deps, logger *slog.Logger) (*Summary, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewBoard == nil {
		deps.NewBoard = NewBoard
	}
	if deps.Sleeper == nil {
		deps.Sleeper = crawl.RealSleeper{}
	}

	summary := &Summary{RunID: uuid.New(), StartedAt: deps.Now()}
	logger = logger.With("run_id", summary.RunID.String())

	seed, err := snapshot.Load(cfg.Output.SnapshotPath, logger)
	if err != nil {
		return nil, err
	}
	summary.Seeded = len(seed)
	state := crawl.NewState(cfg.Crawl.MaxJobs, seed, summary.StartedAt)

	logger.Info("🚀 crawl started",
		"boards", cfg.Boards,
		"positions", cfg.Crawl.PositionList(),
		"seeded", len(seed),
		"max_jobs", cfg.Crawl.MaxJobs,
		"ai", cfg.Crawl.AIAnalysis)

	var crawlErr error
	for _, name := range cfg.Boards {
		if ctx.Err() != nil || state.QuotaReached() {
			break
		}
		result, err := runBoard(ctx, name, cfg, deps, state, logger)
		if result != nil {
			summary.Results = append(summary.Results, result)
		}
		if err != nil {
			if ctx.Err() != nil {
				crawlErr = err
				break
			}
			logger.Error("❌ board failed", "board", name, "error", err)
			crawlErr = errors.Join(crawlErr, err)
		}
	}

	if err := ctx.Err(); err != nil && !errors.Is(crawlErr, err) {
		crawlErr = errors.Join(crawlErr, err)
	}

	summary.Records = state.Records()
	summary.NewRecords = state.NewRecords()
	summary.TokenCost = state.Tokens()
	summary.FinishedAt = deps.Now()

	//partial results are persisted even when the crawl was interrupted
	persistErr := persist(context.WithoutCancel(ctx), cfg, deps, summary, logger)

	logger.Info("🏁 crawl finished",
		"new", len(summary.NewRecords),
		"total", len(summary.Records),
		"tokens", summary.TokenCost,
		"elapsed", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))

	return summary, errors.Join(crawlErr, persistErr)
}

func runBoard(ctx context.Context, name string, cfg *config.Config, deps Deps, state *crawl.State, logger *slog.Logger) (*crawl.Result, error) {
	board, err := deps.NewBoard(name, cfg.Crawl)
	if err != nil {
		return nil, err
	}
	fetcher, closeFetcher, err := deps.Fetchers(name)
	if err != nil {
		return nil, fmt.Errorf("open fetcher for %s: %w", name, err)
	}
	defer func() {
		if closeFetcher == nil {
			return
		}
		if err := closeFetcher(); err != nil {
			logger.Warn("⚠️ failed to close fetcher", "board", name, "error", err)
		}
	}()

	opts := enrich.Options{
		AIEnabled: cfg.Crawl.AIAnalysis && deps.Completer != nil,
		Language:  filter.NewLanguage(cfg.Crawl.DesiredLanguage),
	}
	if opts.AIEnabled {
		opts.Analyzer = ai.NewAnalyzer(deps.Completer, promptOptions(name, cfg.AI))
		if cfg.Crawl.MaxAITokens > 0 {
			//boards run in sequence and share what is left of the budget
			opts.TokenBudget = max(cfg.Crawl.MaxAITokens-state.Tokens(), 0)
			if opts.TokenBudget == 0 {
				opts.AIEnabled = false
				logger.Warn("⚠️ AI token budget exhausted, continuing without analysis", "board", name)
			}
		}
	}

	coord := enrich.NewCoordinator(deps.Detector, opts, logger)
	driver := crawl.NewDriver(cfg.Crawl, board, fetcher, coord, crawl.NewPacer(deps.Sleeper, cfg.Crawl), logger)
	return crawl.NewOrchestrator(driver, cfg.Crawl.PositionList(), logger).Run(ctx, state)
}

func persist(ctx context.Context, cfg *config.Config, deps Deps, s *Summary, logger *slog.Logger) error {
	var errs []error

	if err := snapshot.Save(cfg.Output.SnapshotPath, s.Records); err != nil {
		errs = append(errs, err)
	} else {
		logger.Info("💾 snapshot saved", "path", cfg.Output.SnapshotPath, "records", len(s.Records))
	}

	if cfg.Output.ExcelPath != "" {
		if err := export.WriteExcel(cfg.Output.ExcelPath, s.Records); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("📊 spreadsheet written", "path", cfg.Output.ExcelPath)
		}
	}

	//optional sinks never fail the run
	if deps.Store != nil {
		run := database.Run{
			ID:         s.RunID,
			StartedAt:  s.StartedAt,
			FinishedAt: s.FinishedAt,
			Admitted:   len(s.NewRecords),
			TokenCost:  s.TokenCost,
		}
		if err := deps.Store.SaveRun(ctx, run, s.NewRecords); err != nil {
			logger.Error("❌ failed to save run to database", "error", err)
		} else {
			logger.Info("🗄️ run saved to database", "jobs", len(s.NewRecords))
		}
	}

	if deps.Notifier != nil {
		sent := 0
		for _, rec := range s.NewRecords {
			if err := deps.Notifier.SendJob(rec); err != nil {
				logger.Warn("⚠️ failed to send job to Telegram", "job_id", rec.JobID, "error", err)
				continue
			}
			sent++
		}
		if err := deps.Notifier.SendSummary(s.Results); err != nil {
			logger.Warn("⚠️ failed to send summary to Telegram", "error", err)
		}
		logger.Info("📨 notifications sent", "jobs", sent)
	}

	return errors.Join(errs...)
}
