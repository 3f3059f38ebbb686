package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MichaelPico/job-offer-analyzer/internal/ai"
	"github.com/MichaelPico/job-offer-analyzer/internal/browser"
	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/database"
	"github.com/MichaelPico/job-offer-analyzer/internal/fetch"
	"github.com/MichaelPico/job-offer-analyzer/internal/language"
	"github.com/MichaelPico/job-offer-analyzer/internal/pipeline"
	"github.com/MichaelPico/job-offer-analyzer/internal/scheduler"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"
	"github.com/MichaelPico/job-offer-analyzer/internal/telegram"
)

var (
	crawlSchedule  bool
	crawlPositions []string
	crawlBoards    []string
	crawlMaxJobs   int
	crawlAI        bool
	crawlLanguage  string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the configured boards and export the results",
	Long: `Seeds the collection from the snapshot, crawls every configured board and
position, then writes the snapshot and the spreadsheet. Optional sinks
(PostgreSQL, Telegram) run when configured.

Examples:
  scraper crawl
  scraper crawl --positions "Backend Engineer,Go Developer" --max-jobs 50
  scraper crawl --boards indeed --ai=false
  scraper crawl --schedule`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().BoolVar(&crawlSchedule, "schedule", false, "repeat the crawl on the configured cron schedule")
	crawlCmd.Flags().StringSliceVarP(&crawlPositions, "positions", "p", nil, "positions to search (overrides config)")
	crawlCmd.Flags().StringSliceVarP(&crawlBoards, "boards", "b", nil, "boards to crawl: linkedin, indeed")
	crawlCmd.Flags().IntVarP(&crawlMaxJobs, "max-jobs", "n", 0, "global quota of new jobs")
	crawlCmd.Flags().BoolVar(&crawlAI, "ai", false, "enable AI analysis")
	crawlCmd.Flags().StringVarP(&crawlLanguage, "language", "l", "", "desired language code, e.g. en or fr")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("positions") {
		cfg.Crawl.Positions = crawlPositions
	}
	if flags.Changed("boards") {
		cfg.Boards = crawlBoards
	}
	if flags.Changed("max-jobs") {
		cfg.Crawl.MaxJobs = crawlMaxJobs
	}
	if flags.Changed("ai") {
		cfg.Crawl.AIAnalysis = crawlAI
	}
	if flags.Changed("language") {
		cfg.Crawl.DesiredLanguage = crawlLanguage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if crawlSchedule {
		if err := scheduler.Validate(cfg.Schedule); err != nil {
			return err
		}
		s := scheduler.New(cfg.Schedule, func(ctx context.Context) error {
			_, err := pipeline.Run(ctx, cfg, deps, logger)
			return err
		}, logger)
		return s.Run(ctx)
	}

	summary, err := pipeline.Run(ctx, cfg, deps, logger)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return err
}

// buildDeps opens every collaborator the configuration asks for. Optional
// sinks that cannot be reached are logged and left out.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := pipeline.Deps{
		Detector: language.NewLingua(),
		Fetchers: fetcherFactory(cfg.Fetch, logger),
	}

	if cfg.Crawl.AIAnalysis {
		completer, err := newCompleter(ctx, cfg, logger, &closers)
		if err != nil {
			cleanup()
			return deps, nil, err
		}
		deps.Completer = completer
	}

	if cfg.DatabaseURL != "" {
		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err == nil {
			err = repo.Migrate(ctx)
			closers = append(closers, repo.Close)
		}
		if err != nil {
			logger.Error("❌ database unavailable, runs will not be stored", "error", err)
		} else {
			deps.Store = repo
			logger.Info("🗄️ database connected")
		}
	}

	if cfg.Telegram.Token != "" {
		notifier, err := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Error("❌ telegram unavailable, notifications disabled", "error", err)
		} else {
			deps.Notifier = notifier
			logger.Info("🤖 Telegram Bot initialized")
		}
	}

	return deps, cleanup, nil
}

// newCompleter builds the configured model, cached in Redis when a URL is set.
func newCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger, closers *[]func()) (ai.Completer, error) {
	completer, err := ai.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return completer, nil
	}
	store, err := ai.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("⚠️ redis unavailable, AI answers will not be cached", "error", err)
		return completer, nil
	}
	*closers = append(*closers, func() { store.Close() })
	logger.Info("🧠 AI cache enabled", "ttl", cfg.AI.CacheTTL)
	return ai.NewCachedCompleter(completer, store, cfg.AI.CacheTTL, ai.Namespace(cfg.AI), logger), nil
}

// fetcherFactory serves LinkedIn over plain HTTP and Indeed through Chromium.
func fetcherFactory(fc config.Fetch, logger *slog.Logger) pipeline.FetcherFactory {
	return func(board string) (scraper.Fetcher, func() error, error) {
		if board == "indeed" {
			f, err := browser.NewFetcher(fc, logger)
			if err != nil {
				return nil, nil, err
			}
			return f, f.Close, nil
		}
		return fetch.FromConfig(fc), nil, nil
	}
}

func printSummary(w io.Writer, s *pipeline.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BOARD\tPOSITION\tADMITTED\tPAGES\tERRORS\tAI\tSTOP")
	for _, r := range s.Results {
		for _, p := range r.Positions {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n", p.Board, p.Position, p.Admitted, p.Pages, p.Errors, p.AIAnalyses, p.StopReason)
		}
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d new jobs, %d total, %d AI tokens (run %s)\n", len(s.NewRecords), len(s.Records), s.TokenCost, s.RunID)
}
