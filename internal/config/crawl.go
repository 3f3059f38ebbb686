package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig wraps every configuration failure.
var ErrInvalidConfig = errors.New("invalid configuration")

//LinkedIn filter codes, keyed by the names accepted in configuration
var (
	WorkModes = map[string]int{
		"On-site": 1,
		"Remote":  2,
		"Hybrid":  3,
	}
	ExperienceLevels = map[string]int{
		"Intern":     1,
		"Assistant":  2,
		"Junior":     3,
		"Mid-Senior": 4,
		"Director":   5,
		"Executive":  6,
	}
	PostingWindows = map[string]string{
		"None":  "",
		"Day":   "r86400",
		"Week":  "r604800",
		"Month": "r2592000",
	}
	PostingWindowDays = map[string]int{
		"None":  0,
		"Day":   1,
		"Week":  7,
		"Month": 30,
	}
)

const DefaultMaxEmptyPages = 5

// DelayRange bounds a randomized pause.
type DelayRange struct {
	Min time.Duration `yaml:"min" validate:"ltefield=Max"`
	Max time.Duration `yaml:"max"`
}

// Crawl is the immutable crawl configuration. Build it with NewCrawl.
type Crawl struct {
	Positions          []string   `yaml:"positions" validate:"required,min=1,dive,required"`
	Location           string     `yaml:"location"`
	WorkMode           string     `yaml:"work_mode" validate:"oneof=On-site Remote Hybrid"`
	ExperienceLevel    string     `yaml:"experience_level" validate:"oneof=Intern Assistant Junior Mid-Senior Director Executive"`
	PostingWindow      string     `yaml:"posting_window" validate:"oneof=None Day Week Month"`
	EasyApply          bool       `yaml:"easy_apply"`
	LowApplicants      bool       `yaml:"low_applicants"`
	MaxJobs            int        `yaml:"max_jobs" validate:"gte=1"`
	MaxJobsPerPosition int        `yaml:"max_jobs_per_position" validate:"gte=1"`
	AIAnalysis         bool       `yaml:"ai_analysis"`
	DesiredLanguage    string     `yaml:"desired_language" validate:"required_if=AIAnalysis true,omitempty,alpha"`
	MaxEmptyPages      int        `yaml:"max_empty_pages" validate:"gte=1"`
	MaxAITokens        int        `yaml:"max_ai_tokens" validate:"gte=0"`
	PageDelay          DelayRange `yaml:"page_delay"`
	DetailDelay        DelayRange `yaml:"detail_delay"`
	ErrorBackoff       DelayRange `yaml:"error_backoff"`
}

// DefaultCrawl returns the settings used when nothing is configured.
func DefaultCrawl() Crawl {
	return Crawl{
		Positions:          []string{"Software Developer"},
		Location:           "France",
		WorkMode:           "Remote",
		ExperienceLevel:    "Mid-Senior",
		PostingWindow:      "Week",
		MaxJobs:            300,
		MaxJobsPerPosition: 100,
		MaxEmptyPages:      DefaultMaxEmptyPages,
		PageDelay:          DelayRange{Min: 2 * time.Second, Max: 5 * time.Second},
		DetailDelay:        DelayRange{Min: 1 * time.Second, Max: 3 * time.Second},
		ErrorBackoff:       DelayRange{Min: 5 * time.Second, Max: 10 * time.Second},
	}
}

var validate = validator.New()

// NewCrawl normalizes c and validates it. Any failure is returned wrapped in
// ErrInvalidConfig; a Crawl that comes out of here is safe to use as is.
func NewCrawl(c Crawl) (Crawl, error) {
	positions := make([]string, 0, len(c.Positions))
	for _, p := range c.Positions {
		if p = strings.TrimSpace(p); p != "" {
			positions = append(positions, p)
		}
	}
	c.Positions = positions
	c.Location = strings.TrimSpace(c.Location)
	c.DesiredLanguage = strings.ToLower(strings.TrimSpace(c.DesiredLanguage))
	if c.MaxEmptyPages == 0 {
		c.MaxEmptyPages = DefaultMaxEmptyPages
	}

	if err := validate.Struct(c); err != nil {
		return Crawl{}, fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}
	for name, r := range map[string]DelayRange{"page_delay": c.PageDelay, "detail_delay": c.DetailDelay, "error_backoff": c.ErrorBackoff} {
		if r.Min < 0 || r.Max < 0 {
			return Crawl{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	return c, nil
}

// PositionList returns a copy of the positions.
func (c Crawl) PositionList() []string {
	return append([]string(nil), c.Positions...)
}

//describe turns the first validator failure into a readable message
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of [%s]", fe.Namespace(), fe.Value(), fe.Param())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", fe.Namespace(), strings.Replace(fe.Param(), " ", " is ", 1))
	case "required", "min":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", fe.Namespace(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s=%s (value %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
}
