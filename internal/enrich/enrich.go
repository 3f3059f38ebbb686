// Package enrich completes a candidate record once its detail page is known:
// structured criteria, description language, and optionally AI-extracted
// fields.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/MichaelPico/job-offer-analyzer/internal/ai"
	"github.com/MichaelPico/job-offer-analyzer/internal/filter"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/scraper"
)

const unknownLanguage = "unknown"

// Detector classifies text into a lower-case language code.
type Detector interface {
	Detect(text string) string
}

// Outcome reports what enrichment did for one record.
type Outcome struct {
	Analyzed  bool
	TokenCost int
	AIErr     error
}

// Options configure a Coordinator.
type Options struct {
	//AI analysis runs only when enabled and an Analyzer is set
	AIEnabled bool
	Analyzer  ai.Analyzer
	Language  filter.Language
	//TokenBudget stops AI calls once this many tokens were spent; 0 means no limit
	TokenBudget int
}

type Coordinator struct {
	detector Detector
	opts     Options
	logger   *slog.Logger
	spent    atomic.Int64
}

func NewCoordinator(detector Detector, opts Options, logger *slog.Logger) *Coordinator {
	return &Coordinator{detector: detector, opts: opts, logger: logger}
}

// DetectTitle sets the title language of rec.
func (c *Coordinator) DetectTitle(rec *models.JobRecord) {
	rec.TitleLanguage = c.detect(rec.Title)
}

// Enrich applies detail criteria, detects the description language and, when
// that language is the desired one, merges AI-extracted fields. AI failures
// leave the record as it was and are reported in the Outcome.
func (c *Coordinator) Enrich(ctx context.Context, rec *models.JobRecord, detail scraper.Detail) Outcome {
	ApplyCriteria(rec, detail.Criteria)

	rec.DescriptionLanguage = c.detect(detail.Description)
	if !c.shouldAnalyze(rec) {
		return Outcome{}
	}

	analysis, err := c.opts.Analyzer.Analyze(ctx, detail.Description)
	if err != nil {
		c.logger.Warn("ai analysis failed, keeping listing fields", "job_id", rec.JobID, "error", err)
		return Outcome{AIErr: err}
	}

	Merge(rec, analysis)
	c.spent.Add(int64(analysis.TokenCost))
	return Outcome{Analyzed: true, TokenCost: analysis.TokenCost}
}

// TokensSpent is the total AI cost reported so far.
func (c *Coordinator) TokensSpent() int {
	return int(c.spent.Load())
}

func (c *Coordinator) shouldAnalyze(rec *models.JobRecord) bool {
	if !c.opts.AIEnabled || c.opts.Analyzer == nil {
		return false
	}
	if rec.DescriptionLanguage == unknownLanguage {
		return false
	}
	//AI only runs on descriptions written in the desired language
	if c.opts.Language.Desired == "" || !c.opts.Language.Matches(rec.DescriptionLanguage) {
		return false
	}
	if c.opts.TokenBudget > 0 && c.TokensSpent() >= c.opts.TokenBudget {
		c.logger.Debug("ai token budget exhausted", "budget", c.opts.TokenBudget, "job_id", rec.JobID)
		return false
	}
	return true
}

func (c *Coordinator) detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return unknownLanguage
	}
	code := strings.ToLower(strings.TrimSpace(c.detector.Detect(text)))
	if code == "" {
		return unknownLanguage
	}
	return code
}

// ApplyCriteria copies known detail criteria into rec. Unknown labels are ignored.
func ApplyCriteria(rec *models.JobRecord, criteria []scraper.Criterion) {
	for _, cr := range criteria {
		switch strings.TrimSpace(cr.Label) {
		case "Seniority level":
			rec.SeniorityLevel = cr.Value
		case "Employment type":
			rec.EmploymentType = cr.Value
		case "Job function":
			rec.JobFunction = cr.Value
		case "Industries":
			rec.Industries = cr.Value
		}
	}
}

// Merge overwrites only the fields the analysis actually returned.
func Merge(rec *models.JobRecord, a *ai.Analysis) {
	if a.RequiredStudies != nil {
		rec.RequiredStudies = *a.RequiredStudies
	}
	if a.TechnologiesRequired != nil {
		rec.TechnologiesRequired = append([]string{}, a.TechnologiesRequired...)
	}
	if a.ExperienceYearsNeeded != nil {
		rec.ExperienceYearsNeeded = max(*a.ExperienceYearsNeeded, 0)
	}
	if a.SalaryOffered != nil {
		rec.SalaryOffered = *a.SalaryOffered
	}
}
