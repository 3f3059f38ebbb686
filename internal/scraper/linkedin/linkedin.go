package linkedin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"

	"github.com/PuerkitoBio/goquery"
)

const (
	searchURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	detailURL = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/%s"
	pageSize  = 10
)

//Board reads LinkedIn's guest job API, which needs no login
type Board struct {
	cfg config.Crawl
}

func NewBoard(cfg config.Crawl) *Board {
	return &Board{cfg: cfg}
}

func (b *Board) Name() string {
	return string(models.SourceLinkedIn)
}

// SearchURL builds the guest search URL for one page of results.
func (b *Board) SearchURL(position string, page int) string {
	params := url.Values{}
	params.Set("keywords", position)
	params.Set("location", b.cfg.Location)
	params.Set("start", strconv.Itoa(page*pageSize))
	if code, ok := config.ExperienceLevels[b.cfg.ExperienceLevel]; ok {
		params.Set("f_E", strconv.Itoa(code))
	}
	if code, ok := config.WorkModes[b.cfg.WorkMode]; ok {
		params.Set("f_WT", strconv.Itoa(code))
	}
	if b.cfg.EasyApply {
		params.Set("f_AL", "true")
	}
	if b.cfg.LowApplicants {
		params.Set("f_JIYN", "true")
	}
	if tpr := config.PostingWindows[b.cfg.PostingWindow]; tpr != "" {
		params.Set("f_TPR", tpr)
	}
	return searchURL + "?" + params.Encode()
}

func (b *Board) DetailURL(rec *models.JobRecord) string {
	return fmt.Sprintf(detailURL, rec.JobID)
}

// ParseListing maps every card of a search page. An empty or card-less page
// returns no candidates and no error.
func (b *Board) ParseListing(markup string, now time.Time) ([]scraper.Candidate, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse linkedin listing: %w", err)
	}

	cards := doc.Find("li > div.base-card")
	candidates := make([]scraper.Candidate, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		candidates = append(candidates, b.MapCard(card, now))
	})
	return candidates, nil
}

// MapCard turns one base-card into a candidate record. Cards without a link
// are skipped.
func (b *Board) MapCard(card *goquery.Selection, now time.Time) scraper.Candidate {
	link := scraper.Attr(card, "[class*=_full-link]", "href")
	if link == "" {
		return scraper.Skipped(scraper.SkipNoURL)
	}
	jobID := JobIDFromURL(link)
	if jobID == "" {
		return scraper.Skipped(scraper.SkipMalformed)
	}

	rec := models.NewJobRecord(models.SourceLinkedIn)
	rec.URL = canonicalURL(link)
	rec.JobID = jobID
	rec.Title = scraper.Text(card, "[class*=_title]")
	rec.Company = scraper.Text(card, "[class*=_subtitle]")
	rec.Location = scraper.Text(card, "[class*=_location]")
	rec.PostedTime = models.NewTimestamp(postedTime(card, now))
	rec.DateAnalyzed = models.NewTimestamp(now)
	//the guest API only returns easy-apply jobs when the filter is on
	rec.EasyApply = b.cfg.EasyApply
	return scraper.Mapped(rec)
}

// ParseDetail reads the description and the criteria list of a job posting.
func (b *Board) ParseDetail(markup string) (scraper.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return scraper.Detail{}, fmt.Errorf("parse linkedin detail: %w", err)
	}

	detail := scraper.Detail{
		Description: scraper.Text(doc.Selection, "[class*=description] > section > div"),
	}
	doc.Find("ul.description__job-criteria-list li").Each(func(_ int, item *goquery.Selection) {
		label := scraper.Text(item, ".description__job-criteria-subheader")
		value := scraper.Text(item, ".description__job-criteria-text")
		if label == "" {
			return
		}
		detail.Criteria = append(detail.Criteria, scraper.Criterion{Label: label, Value: value})
	})
	return detail, nil
}

// JobIDFromURL takes the trailing path segment of a posting URL, with query
// and fragment stripped. Slugs such as "go-developer-at-acme-3812345678"
// reduce to their numeric suffix.
func JobIDFromURL(raw string) string {
	path := canonicalURL(raw)
	path = strings.TrimRight(path, "/")
	segment := path[strings.LastIndex(path, "/")+1:]
	if i := strings.LastIndex(segment, "-"); i >= 0 && isDigits(segment[i+1:]) {
		return segment[i+1:]
	}
	return segment
}

func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

//postedTime reads the relative listdate text, falling back to the datetime attribute
func postedTime(card *goquery.Selection, now time.Time) time.Time {
	text := scraper.Text(card, "[class*=listdate]")
	if text != "" {
		return scraper.ParseRelativeTime(text, now)
	}
	if attr := scraper.Attr(card, "time", "datetime"); attr != "" {
		if t, err := time.ParseInLocation("2006-01-02", attr, now.Location()); err == nil {
			return t
		}
	}
	return now
}
