package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/crawl"
	"github.com/MichaelPico/job-offer-analyzer/internal/database"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"
	"github.com/MichaelPico/job-offer-analyzer/internal/snapshot"
)

const listingHTML = `
<li><div class="base-card">
  <a class="base-card__full-link" href="https://fr.linkedin.com/jobs/view/developpeur-go-at-acme-3812345678?refId=abc"></a>
  <h3 class="base-search-card__title">Développeur Go</h3>
  <h4 class="base-search-card__subtitle">Acme</h4>
  <time class="job-search-card__listdate" datetime="2024-03-12">3 days ago</time>
</div></li>
<li><div class="base-card">
  <h3 class="base-search-card__title">Sans lien</h3>
</div></li>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://fr.linkedin.com/jobs/view/3899999999/"></a>
  <h3 class="base-search-card__title">Ingénieur Backend</h3>
  <h4 class="base-search-card__subtitle">Globex</h4>
</div></li>`

const detailHTML = `
<div class="description__text"><section><div>Nous recherchons un développeur.</div></section></div>
<ul class="description__job-criteria-list">
  <li><h3 class="description__job-criteria-subheader">Seniority level</h3><span class="description__job-criteria-text">Mid-Senior level</span></li>
</ul>`

type frenchDetector struct{}

func (frenchDetector) Detect(string) string { return "fr" }

type noSleep struct{}

func (noSleep) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type fakeStore struct {
	runs    []database.Run
	records [][]models.JobRecord
}

func (s *fakeStore) SaveRun(_ context.Context, run database.Run, records []models.JobRecord) error {
	s.runs = append(s.runs, run)
	s.records = append(s.records, records)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	jobs      []string
	summaries int
	err       error
}

func (n *fakeNotifier) SendJob(job models.JobRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job.JobID)
	return n.err
}

func (n *fakeNotifier) SendSummary([]*crawl.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries++
	return n.err
}

func linkedinPages(_ string) (scraper.Fetcher, func() error, error) {
	fetcher := scraper.FetcherFunc(func(_ context.Context, url string) (string, error) {
		switch {
		case strings.Contains(url, "/jobPosting/"):
			return detailHTML, nil
		case strings.Contains(url, "start=0"):
			return listingHTML, nil
		}
		return "", nil
	})
	return fetcher, nil, nil
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Boards = []string{"linkedin"}
	cfg.Crawl.Positions = []string{"Développeur Go"}
	cfg.Crawl.DesiredLanguage = "fr"
	cfg.Crawl.MaxEmptyPages = 1
	cfg.Output.SnapshotPath = filepath.Join(dir, "output", "jobs.json")
	cfg.Output.ExcelPath = filepath.Join(dir, "output", "jobs.xlsx")
	return cfg
}

func testDeps(store *fakeStore, notifier *fakeNotifier) Deps {
	deps := Deps{
		Detector: frenchDetector{},
		Fetchers: linkedinPages,
		Sleeper:  noSleep{},
		Now:      func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
	if store != nil {
		deps.Store = store
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return deps
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_PersistsAndResumes(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	summary, err := Run(context.Background(), cfg, testDeps(store, notifier), discard())
	require.NoError(t, err)
	require.Len(t, summary.NewRecords, 2)
	assert.Equal(t, 0, summary.Seeded)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "LinkedIn", summary.Results[0].Board)

	saved, err := snapshot.Load(cfg.Output.SnapshotPath, discard())
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Mid-Senior level", saved[0].SeniorityLevel)
	assert.Equal(t, "fr", saved[0].DescriptionLanguage)

	_, err = os.Stat(cfg.Output.ExcelPath)
	assert.NoError(t, err, "spreadsheet written")

	require.Len(t, store.runs, 1)
	assert.Equal(t, summary.RunID, store.runs[0].ID)
	assert.Equal(t, 2, store.runs[0].Admitted)
	assert.ElementsMatch(t, []string{"3812345678", "3899999999"}, notifier.jobs)
	assert.Equal(t, 1, notifier.summaries)

	//the second run is seeded from the snapshot and finds nothing new
	again, err := Run(context.Background(), cfg, testDeps(store, notifier), discard())
	require.NoError(t, err)
	assert.Equal(t, 2, again.Seeded)
	assert.Empty(t, again.NewRecords)
	assert.Len(t, again.Records, 2)
	assert.NotEqual(t, summary.RunID, again.RunID)
}

func TestRun_CancelledStillSaves(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Run(ctx, cfg, testDeps(&fakeStore{}, &fakeNotifier{}), discard())
	require.NotNil(t, summary)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.NewRecords)

	_, statErr := os.Stat(cfg.Output.SnapshotPath)
	assert.NoError(t, statErr, "snapshot is written on interruption")
}

func TestRun_NotifierFailuresDoNotFailRun(t *testing.T) {
	cfg := testConfig(t)
	notifier := &fakeNotifier{err: errors.New("chat not found")}

	summary, err := Run(context.Background(), cfg, testDeps(nil, notifier), discard())
	require.NoError(t, err)
	assert.Len(t, summary.NewRecords, 2)
	assert.Len(t, notifier.jobs, 2)
}

func TestRun_UnknownBoard(t *testing.T) {
	cfg := testConfig(t)
	cfg.Boards = []string{"monster", "linkedin"}

	summary, err := Run(context.Background(), cfg, testDeps(nil, nil), discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown board "monster"`)
	assert.Len(t, summary.NewRecords, 2, "later boards still run")
}

func TestPromptOptions(t *testing.T) {
	cfg := config.AI{SkipSalary: false, SkipTechnologies: true}
	assert.False(t, promptOptions("linkedin", cfg).SkipSalary)
	assert.True(t, promptOptions("linkedin", cfg).SkipTechnologies)
	assert.True(t, promptOptions("indeed", cfg).SkipSalary)
}
