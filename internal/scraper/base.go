// Shared contracts for job boards
// A board knows its URLs and markup; the crawl package drives it

package scraper

import (
	"context"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

// Fetcher returns the markup behind a URL. An empty string with a nil error
// is a valid, empty page; failures are always reported as errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

//SkipReason explains why a card never became an admitted record
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipNoURL               SkipReason = "no_url"
	SkipMalformed           SkipReason = "malformed"
	SkipDuplicate           SkipReason = "duplicate"
	SkipTitleLanguage       SkipReason = "title_language"
	SkipDetailFetch         SkipReason = "detail_fetch"
	SkipDetailParse         SkipReason = "detail_parse"
	SkipDescriptionLanguage SkipReason = "description_language"
	SkipQuota               SkipReason = "quota"
)

// Candidate is the result of mapping one listing card: either a record or
// the reason there is none.
type Candidate struct {
	Record *models.JobRecord
	Skip   SkipReason
}

func Skipped(reason SkipReason) Candidate {
	return Candidate{Skip: reason}
}

func Mapped(rec *models.JobRecord) Candidate {
	return Candidate{Record: rec}
}

// Criterion is one labelled entry of a detail page's criteria list.
type Criterion struct {
	Label string
	Value string
}

// Detail is what a detail page contributes to a record.
type Detail struct {
	Description string
	Criteria    []Criterion
}

//Board defines what every job board must provide
type Board interface {
	//Name is the board name (LinkedIn, Indeed, ...)
	Name() string

	//SearchURL builds the listing URL for a position at a zero-based page index
	SearchURL(position string, page int) string

	//ParseListing maps every card on a listing page; now is fixed per run
	ParseListing(markup string, now time.Time) ([]Candidate, error)

	//DetailURL returns where the full description of a record lives
	DetailURL(rec *models.JobRecord) string

	//ParseDetail extracts description and criteria from a detail page
	ParseDetail(markup string) (Detail, error)
}
