package crawl

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/enrich"
	"github.com/MichaelPico/job-offer-analyzer/internal/filter"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"
)

// StopReason tells why a position stopped paginating.
type StopReason string

const (
	StopPositionQuota StopReason = "position_quota"
	StopGlobalQuota   StopReason = "global_quota"
	StopCeiling       StopReason = "empty_or_error_ceiling"
	StopCancelled     StopReason = "cancelled"
)

// PositionStats summarizes one position of one board.
type PositionStats struct {
	Board         string
	Position      string
	Admitted      int
	Pages         int
	EmptyPages    int
	Errors        int
	DetailFetches int
	AIAnalyses    int
	AIFailures    int
	TokenCost     int
	Skipped       map[scraper.SkipReason]int
	StopReason    StopReason
}

func (s *PositionStats) skip(reason scraper.SkipReason) {
	s.Skipped[reason]++
}

// Driver paginates one position of one board, feeding each card through
// dedup, the language checkpoints and enrichment.
type Driver struct {
	cfg     config.Crawl
	board   scraper.Board
	fetcher scraper.Fetcher
	coord   *enrich.Coordinator
	lang    filter.Language
	pacer   *Pacer
	logger  *slog.Logger
}

func NewDriver(cfg config.Crawl, board scraper.Board, fetcher scraper.Fetcher, coord *enrich.Coordinator, pacer *Pacer, logger *slog.Logger) *Driver {
	return &Driver{
		cfg:     cfg,
		board:   board,
		fetcher: fetcher,
		coord:   coord,
		lang:    filter.NewLanguage(cfg.DesiredLanguage),
		pacer:   pacer,
		logger:  logger.With("board", board.Name()),
	}
}

// Run crawls position until its quota, the global quota or the empty/error
// ceiling stops it. Failures never escape: they are counted in the stats.
func (d *Driver) Run(ctx context.Context, position string, state *State) PositionStats {
	stats := PositionStats{
		Board:    d.board.Name(),
		Position: position,
		Skipped:  make(map[scraper.SkipReason]int),
	}
	log := d.logger.With("position", position)

	page := 0
	consecutive := 0
	for {
		switch {
		case ctx.Err() != nil:
			stats.StopReason = StopCancelled
		case state.QuotaReached():
			stats.StopReason = StopGlobalQuota
		case stats.Admitted >= d.cfg.MaxJobsPerPosition:
			stats.StopReason = StopPositionQuota
		case consecutive >= d.cfg.MaxEmptyPages:
			stats.StopReason = StopCeiling
		}
		if stats.StopReason != "" {
			log.Info("🏁 position finished", "reason", stats.StopReason, "admitted", stats.Admitted, "pages", stats.Pages)
			return stats
		}

		if err := d.pacer.BeforePage(ctx); err != nil {
			stats.StopReason = StopCancelled
			continue
		}

		url := d.board.SearchURL(position, page)
		stats.Pages++
		candidates, err := d.fetchListing(ctx, url, state)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			stats.Errors++
			consecutive++
			log.Warn("⚠️ listing page failed, backing off", "page", page, "url", url, "error", err, "consecutive", consecutive)
			//the same page is retried after the back-off
			_ = d.pacer.AfterError(ctx)
			continue
		}

		admitted := d.processPage(ctx, candidates, state, &stats)
		if len(candidates) == 0 || admitted == 0 {
			consecutive++
			stats.EmptyPages++
			log.Info("📭 no new jobs on page", "page", page, "cards", len(candidates), "consecutive", consecutive)
		} else {
			consecutive = 0
			log.Info("📄 page processed", "page", page, "cards", len(candidates), "admitted", admitted, "position_total", stats.Admitted)
		}
		page++
	}
}

func (d *Driver) fetchListing(ctx context.Context, url string, state *State) ([]scraper.Candidate, error) {
	markup, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return d.board.ParseListing(markup, state.StartedAt())
}

// processPage returns how many records of this page were admitted. Quotas
// are checked before every card.
func (d *Driver) processPage(ctx context.Context, candidates []scraper.Candidate, state *State, stats *PositionStats) int {
	admitted := 0
	for _, cand := range candidates {
		if ctx.Err() != nil || state.QuotaReached() || stats.Admitted >= d.cfg.MaxJobsPerPosition {
			break
		}
		reason := d.processCard(ctx, cand, state, stats)
		if reason != scraper.SkipNone {
			stats.skip(reason)
			continue
		}
		admitted++
		stats.Admitted++
	}
	return admitted
}

func (d *Driver) processCard(ctx context.Context, cand scraper.Candidate, state *State, stats *PositionStats) scraper.SkipReason {
	if cand.Skip != scraper.SkipNone {
		return cand.Skip
	}
	rec := cand.Record
	if state.IsDuplicate(rec) {
		return scraper.SkipDuplicate
	}

	//title language is checked before paying for the detail page
	d.coord.DetectTitle(rec)
	if !d.lang.AcceptTitle(rec) {
		return scraper.SkipTitleLanguage
	}

	if err := d.pacer.BeforeDetail(ctx); err != nil {
		return scraper.SkipDetailFetch
	}
	stats.DetailFetches++
	markup, err := d.fetcher.Fetch(ctx, d.board.DetailURL(rec))
	if err != nil || strings.TrimSpace(markup) == "" {
		d.logger.Warn("⚠️ detail page unavailable", "job_id", rec.JobID, "error", err)
		return scraper.SkipDetailFetch
	}
	detail, err := d.board.ParseDetail(markup)
	if err != nil {
		d.logger.Warn("⚠️ detail page unreadable", "job_id", rec.JobID, "error", err)
		return scraper.SkipDetailParse
	}

	out := d.coord.Enrich(ctx, rec, detail)
	if out.Analyzed {
		stats.AIAnalyses++
	}
	if out.AIErr != nil {
		stats.AIFailures++
	}
	stats.TokenCost += out.TokenCost
	state.AddTokens(out.TokenCost)

	if !d.lang.AcceptDescription(rec) {
		return scraper.SkipDescriptionLanguage
	}

	switch state.Admit(rec) {
	case Duplicate:
		return scraper.SkipDuplicate
	case QuotaFull:
		return scraper.SkipQuota
	}
	d.logger.Debug("✅ job admitted", "job_id", rec.JobID, "title", rec.Title, "company", rec.Company)
	return scraper.SkipNone
}
