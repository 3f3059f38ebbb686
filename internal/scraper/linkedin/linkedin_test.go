package linkedin

import (
	"net/url"
	"testing"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `
<li><div class="base-card">
  <a class="base-card__full-link" href="https://fr.linkedin.com/jobs/view/backend-engineer-at-acme-3812345678?refId=abc&trackingId=xyz"></a>
  <h3 class="base-search-card__title"> Backend Engineer </h3>
  <h4 class="base-search-card__subtitle"><a>Acme</a></h4>
  <span class="job-search-card__location">Paris, Île-de-France</span>
  <time class="job-search-card__listdate" datetime="2024-03-12">3 days ago</time>
</div></li>
<li><div class="base-card">
  <h3 class="base-search-card__title">No link here</h3>
</div></li>
<li><div class="base-card">
  <a class="base-card__full-link" href="https://fr.linkedin.com/jobs/view/3899999999/"></a>
  <h3 class="base-search-card__title">Go Developer</h3>
  <h4 class="base-search-card__subtitle">Globex</h4>
  <time class="job-search-card__listdate--new" datetime="2024-03-15">5 hours ago</time>
</div></li>`

const detailHTML = `
<div class="show-more-less-html description__text">
  <section class="show-more-less-html"><div class="show-more-less-html__markup">
    Nous recherchons un développeur <strong>Go</strong>.
  </div></section>
</div>
<ul class="description__job-criteria-list">
  <li><h3 class="description__job-criteria-subheader">Seniority level</h3><span class="description__job-criteria-text">Mid-Senior level</span></li>
  <li><h3 class="description__job-criteria-subheader">Employment type</h3><span class="description__job-criteria-text">Full-time</span></li>
  <li><h3 class="description__job-criteria-subheader">Benefits</h3><span class="description__job-criteria-text">Lunch</span></li>
</ul>`

func TestParseListing(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	board := NewBoard(config.Crawl{EasyApply: true})

	candidates, err := board.ParseListing(listingHTML, now)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	first := candidates[0].Record
	require.NotNil(t, first)
	assert.Equal(t, "3812345678", first.JobID)
	assert.Equal(t, "https://fr.linkedin.com/jobs/view/backend-engineer-at-acme-3812345678", first.URL)
	assert.Equal(t, "Backend Engineer", first.Title)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "Paris, Île-de-France", first.Location)
	assert.True(t, now.AddDate(0, 0, -3).Equal(first.PostedTime.Time))
	assert.True(t, now.Equal(first.DateAnalyzed.Time))
	assert.True(t, first.EasyApply)
	assert.Equal(t, models.SourceLinkedIn, first.Source)
	assert.NotNil(t, first.TechnologiesRequired)

	assert.Nil(t, candidates[1].Record)
	assert.Equal(t, scraper.SkipNoURL, candidates[1].Skip)

	third := candidates[2].Record
	require.NotNil(t, third)
	assert.Equal(t, "3899999999", third.JobID)
	assert.True(t, now.Add(-5*time.Hour).Equal(third.PostedTime.Time))
}

func TestParseListing_Empty(t *testing.T) {
	board := NewBoard(config.Crawl{})

	candidates, err := board.ParseListing("", time.Now())
	assert.NoError(t, err)
	assert.Empty(t, candidates)

	candidates, err = board.ParseListing("<html><body></body></html>", time.Now())
	assert.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestParseDetail(t *testing.T) {
	detail, err := NewBoard(config.Crawl{}).ParseDetail(detailHTML)
	require.NoError(t, err)

	assert.Equal(t, "Nous recherchons un développeur Go.", detail.Description)
	assert.Equal(t, []scraper.Criterion{
		{Label: "Seniority level", Value: "Mid-Senior level"},
		{Label: "Employment type", Value: "Full-time"},
		{Label: "Benefits", Value: "Lunch"},
	}, detail.Criteria)
}

func TestJobIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.linkedin.com/jobs/view/go-dev-at-acme-123456?refId=1", "123456"},
		{"https://www.linkedin.com/jobs/view/123456/", "123456"},
		{"https://www.linkedin.com/jobs/view/123456#section", "123456"},
		{"https://www.linkedin.com/jobs/view/senior-dev", "senior-dev"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, JobIDFromURL(tt.url))
		})
	}
}

func TestSearchURL(t *testing.T) {
	board := NewBoard(config.Crawl{
		Location:        "France",
		WorkMode:        "Remote",
		ExperienceLevel: "Mid-Senior",
		PostingWindow:   "Week",
		EasyApply:       true,
		LowApplicants:   true,
	})

	u, err := url.Parse(board.SearchURL("Backend Engineer", 2))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/jobs-guest/jobs/api/seeMoreJobPostings/search", u.Path)
	assert.Equal(t, "Backend Engineer", q.Get("keywords"))
	assert.Equal(t, "France", q.Get("location"))
	assert.Equal(t, "20", q.Get("start"))
	assert.Equal(t, "4", q.Get("f_E"))
	assert.Equal(t, "2", q.Get("f_WT"))
	assert.Equal(t, "r604800", q.Get("f_TPR"))
	assert.Equal(t, "true", q.Get("f_AL"))
	assert.Equal(t, "true", q.Get("f_JIYN"))

	noWindow := NewBoard(config.Crawl{PostingWindow: "None"})
	assert.NotContains(t, noWindow.SearchURL("x", 0), "f_TPR")
	assert.Equal(t, "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/42", board.DetailURL(&models.JobRecord{JobID: "42"}))
}
