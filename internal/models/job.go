package models

import (
	"fmt"
	"slices"
)

// Source identifies the job board a record was extracted from.
type Source string

const (
	SourceLinkedIn Source = "LinkedIn"
	SourceIndeed   Source = "Indeed"
)

// ParseSource validates a board name against the known sources.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceLinkedIn, SourceIndeed:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// JobRecord is one normalized job posting. Field names follow the snapshot
// schema so a snapshot written by one run can seed the next.
type JobRecord struct {
	Title                 string    `json:"title"`
	URL                   string    `json:"url"`
	Company               string    `json:"company"`
	Location              string    `json:"location"`
	PostedTime            Timestamp `json:"posted_time"`
	JobID                 string    `json:"job_id"`
	TitleLanguage         string    `json:"title_language"`
	DescriptionLanguage   string    `json:"description_language"`
	SeniorityLevel        string    `json:"seniority_level"`
	EmploymentType        string    `json:"employment_type"`
	JobFunction           string    `json:"job_function"`
	Industries            string    `json:"industries"`
	RequiredStudies       string    `json:"required_studies"`
	TechnologiesRequired  []string  `json:"technologies_required"`
	ExperienceYearsNeeded int       `json:"experience_years_needed"`
	SalaryOffered         Salary    `json:"salary_offered"`
	EasyApply             bool      `json:"easy_apply"`
	Source                Source    `json:"source"`
	DateAnalyzed          Timestamp `json:"date_analyzed"`
}

// NewJobRecord returns an empty candidate. Every record owns its own
// technologies slice.
func NewJobRecord(source Source) *JobRecord {
	return &JobRecord{
		Source:               source,
		TechnologiesRequired: []string{},
	}
}

// Clone returns a deep copy so admitted records cannot be mutated through
// a candidate pointer still held by the caller.
func (r *JobRecord) Clone() JobRecord {
	c := *r
	if r.TechnologiesRequired == nil {
		c.TechnologiesRequired = []string{}
	} else {
		c.TechnologiesRequired = slices.Clone(r.TechnologiesRequired)
	}
	return c
}
