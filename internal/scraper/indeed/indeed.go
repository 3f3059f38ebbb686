package indeed

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const (
	DefaultBaseURL = "https://fr.indeed.com"
	pageSize       = 10
	//remote-only attribute filter, copied from Indeed's own search form
	remoteFilter = "0kf:attr(5QWDV|CF3CP%2COR)attr(DSQF7);"
)

var (
	jobCardsData = regexp.MustCompile(`window.mosaic.providerData\["mosaic-provider-jobcards"\]=(\{.+?\});`)
	initialData  = regexp.MustCompile(`_initialData=(\{.+?\});`)
)

// Card is the subset of Indeed's embedded job card JSON that is mapped.
type Card struct {
	DisplayTitle       string   `json:"displayTitle"`
	Company            string   `json:"company"`
	FormattedLocation  string   `json:"formattedLocation"`
	PubDate            int64    `json:"pubDate"`
	JobTypes           []string `json:"jobTypes"`
	JobKey             string   `json:"jobkey"`
	IndeedApplyEnabled bool     `json:"indeedApplyEnabled"`
	ExtractedSalary    *struct {
		Min  float64 `json:"min"`
		Max  float64 `json:"max"`
		Type string  `json:"type"`
	} `json:"extractedSalary"`
	MatchSummary *struct {
		MismatchingSkills []string `json:"sortedMisMatchingEntityDisplayText"`
	} `json:"jobSeekerMatchSummaryModel"`
}

type listingPayload struct {
	MetaData struct {
		Model struct {
			Results []json.RawMessage `json:"results"`
		} `json:"mosaicProviderJobCardsModel"`
	} `json:"metaData"`
}

type detailPayload struct {
	JobInfoWrapperModel struct {
		JobInfoModel struct {
			SanitizedJobDescription string `json:"sanitizedJobDescription"`
		} `json:"jobInfoModel"`
	} `json:"jobInfoWrapperModel"`
}

//Board reads the JSON Indeed embeds in its search and job pages
type Board struct {
	cfg       config.Crawl
	baseURL   string
	converter *md.Converter
}

func NewBoard(cfg config.Crawl, baseURL string) *Board {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Board{
		cfg:       cfg,
		baseURL:   strings.TrimRight(baseURL, "/"),
		converter: md.NewConverter("", true, nil),
	}
}

func (b *Board) Name() string {
	return string(models.SourceIndeed)
}

func (b *Board) SearchURL(position string, page int) string {
	params := url.Values{}
	params.Set("q", position)
	params.Set("l", b.cfg.Location)
	if days := config.PostingWindowDays[b.cfg.PostingWindow]; days > 0 {
		params.Set("fromage", strconv.Itoa(days))
	}
	if page > 0 {
		params.Set("start", strconv.Itoa(page*pageSize))
	}
	u := b.baseURL + "/jobs?" + params.Encode()
	if b.cfg.WorkMode == "Remote" {
		u += "&sc=" + url.QueryEscape(remoteFilter)
	}
	return u
}

func (b *Board) DetailURL(rec *models.JobRecord) string {
	return b.viewURL(rec.JobID)
}

func (b *Board) viewURL(jobKey string) string {
	return b.baseURL + "/viewjob?jk=" + url.QueryEscape(jobKey)
}

// ParseListing decodes the job cards of a search page. A page without the
// embedded cards payload is treated as empty.
func (b *Board) ParseListing(markup string, now time.Time) ([]scraper.Candidate, error) {
	m := jobCardsData.FindStringSubmatch(markup)
	if m == nil {
		return nil, nil
	}
	var payload listingPayload
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return nil, fmt.Errorf("decode indeed job cards: %w", err)
	}

	candidates := make([]scraper.Candidate, 0, len(payload.MetaData.Model.Results))
	for _, raw := range payload.MetaData.Model.Results {
		var card Card
		if err := json.Unmarshal(raw, &card); err != nil {
			candidates = append(candidates, scraper.Skipped(scraper.SkipMalformed))
			continue
		}
		candidates = append(candidates, b.MapCard(card, now))
	}
	return candidates, nil
}

// MapCard converts one decoded card. Cards without a job key have no URL and
// are skipped.
func (b *Board) MapCard(card Card, now time.Time) scraper.Candidate {
	if strings.TrimSpace(card.JobKey) == "" {
		return scraper.Skipped(scraper.SkipNoURL)
	}

	rec := models.NewJobRecord(models.SourceIndeed)
	rec.JobID = card.JobKey
	rec.URL = b.viewURL(card.JobKey)
	rec.Title = scraper.CleanText(card.DisplayTitle)
	rec.Company = scraper.CleanText(card.Company)
	rec.Location = scraper.CleanText(card.FormattedLocation)
	if card.PubDate > 0 {
		rec.PostedTime = models.NewTimestamp(time.UnixMilli(card.PubDate).UTC())
	}
	rec.EmploymentType = strings.Join(card.JobTypes, ", ")
	if card.MatchSummary != nil && len(card.MatchSummary.MismatchingSkills) > 0 {
		rec.TechnologiesRequired = append([]string{}, card.MatchSummary.MismatchingSkills...)
	}
	if s := card.ExtractedSalary; s != nil {
		rec.SalaryOffered = models.SalaryText(fmt.Sprintf("%s - %s %s", formatAmount(s.Min), formatAmount(s.Max), s.Type))
	}
	rec.EasyApply = card.IndeedApplyEnabled
	rec.DateAnalyzed = models.NewTimestamp(now)
	return scraper.Mapped(rec)
}

// ParseDetail converts the sanitized description HTML to plain markdown text.
// Indeed has no criteria list.
func (b *Board) ParseDetail(markup string) (scraper.Detail, error) {
	m := initialData.FindStringSubmatch(markup)
	if m == nil {
		return scraper.Detail{}, fmt.Errorf("indeed detail: _initialData not found")
	}
	var payload detailPayload
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return scraper.Detail{}, fmt.Errorf("decode indeed detail: %w", err)
	}

	html := payload.JobInfoWrapperModel.JobInfoModel.SanitizedJobDescription
	text, err := b.converter.ConvertString(html)
	if err != nil {
		return scraper.Detail{}, fmt.Errorf("convert indeed description: %w", err)
	}
	return scraper.Detail{Description: strings.TrimSpace(text)}, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
