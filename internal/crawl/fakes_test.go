package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/ai"
	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/enrich"
	"github.com/MichaelPico/job-offer-analyzer/internal/filter"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"
)

var errBoom = errors.New("connection reset")

// fakeBoard reads listing pages written as one "id|title|company" card per
// line; an id of "-" stands for a card without a link.
type fakeBoard struct{}

func (fakeBoard) Name() string { return "Fake" }

func (fakeBoard) SearchURL(position string, page int) string {
	return fmt.Sprintf("search:%s:%d", position, page)
}

func (fakeBoard) ParseListing(markup string, now time.Time) ([]scraper.Candidate, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}
	if markup == "<broken>" {
		return nil, errors.New("unexpected markup")
	}
	var out []scraper.Candidate
	for _, line := range strings.Split(strings.TrimSpace(markup), "\n") {
		f := strings.Split(line, "|")
		if f[0] == "-" {
			out = append(out, scraper.Skipped(scraper.SkipNoURL))
			continue
		}
		rec := models.NewJobRecord(models.SourceLinkedIn)
		rec.JobID, rec.Title, rec.Company = f[0], f[1], f[2]
		rec.URL = "https://jobs.example/" + f[0]
		rec.PostedTime = models.NewTimestamp(now)
		rec.DateAnalyzed = models.NewTimestamp(now)
		out = append(out, scraper.Mapped(rec))
	}
	return out, nil
}

func (fakeBoard) DetailURL(rec *models.JobRecord) string {
	return "detail:" + rec.JobID
}

func (fakeBoard) ParseDetail(markup string) (scraper.Detail, error) {
	return scraper.Detail{
		Description: markup,
		Criteria:    []scraper.Criterion{{Label: "Seniority level", Value: "Mid-Senior level"}},
	}, nil
}

// fakeFetcher serves pages from a map. Unknown search URLs are empty pages;
// detail URLs default to a French description.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	fail   func(url string) error
	calls  []string
	onCall func(url string)
}

func newFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	onCall := f.onCall
	f.mu.Unlock()
	if onCall != nil {
		onCall(url)
	}
	if f.fail != nil {
		if err := f.fail(url); err != nil {
			return "", err
		}
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	if strings.HasPrefix(url, "detail:") {
		return "FR description du poste " + strings.TrimPrefix(url, "detail:"), nil
	}
	return "", nil
}

func (f *fakeFetcher) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeFetcher) fetched(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// recordingSleeper never blocks; it remembers every requested pause.
type recordingSleeper struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pauses {
		if p == d {
			n++
		}
	}
	return n
}

//text starting with "EN " is English, everything else French
type prefixDetector struct{}

func (prefixDetector) Detect(text string) string {
	if strings.HasPrefix(text, "EN ") {
		return "en"
	}
	return "fr"
}

type countingAnalyzer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *countingAnalyzer) Analyze(context.Context, string) (*ai.Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	years := 2
	return &ai.Analysis{ExperienceYearsNeeded: &years, TechnologiesRequired: []string{"Go"}, TokenCost: 100}, nil
}

const (
	pageDelay   = time.Millisecond
	detailDelay = 10 * time.Millisecond
	backoff     = time.Second
)

func testConfig() config.Crawl {
	return config.Crawl{
		Positions:          []string{"Backend Engineer"},
		MaxJobs:            100,
		MaxJobsPerPosition: 100,
		MaxEmptyPages:      3,
		DesiredLanguage:    "fr",
		PageDelay:          config.DelayRange{Min: pageDelay, Max: pageDelay},
		DetailDelay:        config.DelayRange{Min: detailDelay, Max: detailDelay},
		ErrorBackoff:       config.DelayRange{Min: backoff, Max: backoff},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	cfg      config.Crawl
	fetcher  *fakeFetcher
	sleeper  *recordingSleeper
	analyzer *countingAnalyzer
	state    *State
	orch     *Orchestrator
	driver   *Driver
}

func newHarness(cfg config.Crawl, fetcher *fakeFetcher, seed ...models.JobRecord) *harness {
	h := &harness{
		cfg:      cfg,
		fetcher:  fetcher,
		sleeper:  &recordingSleeper{},
		analyzer: &countingAnalyzer{},
		state:    NewState(cfg.MaxJobs, seed, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)),
	}
	logger := discardLogger()
	coord := enrich.NewCoordinator(prefixDetector{}, enrich.Options{
		AIEnabled: cfg.AIAnalysis,
		Analyzer:  h.analyzer,
		Language:  filter.NewLanguage(cfg.DesiredLanguage),
	}, logger)
	h.driver = NewDriver(cfg, fakeBoard{}, fetcher, coord, NewPacer(h.sleeper, cfg), logger)
	h.orch = NewOrchestrator(h.driver, cfg.Positions, logger)
	return h
}

func cards(lines ...string) string {
	return strings.Join(lines, "\n")
}
