package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MichaelPico/job-offer-analyzer/internal/ai"
	"github.com/MichaelPico/job-offer-analyzer/internal/crawl"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
	"github.com/MichaelPico/job-offer-analyzer/internal/pipeline"
)

func TestPrintSummary(t *testing.T) {
	s := &pipeline.Summary{
		RunID:     uuid.MustParse("6f1c1c1e-8b1a-4c2e-9d7e-0a1b2c3d4e5f"),
		StartedAt: time.Now(),
		Results: []*crawl.Result{{
			Board: "LinkedIn",
			Positions: []crawl.PositionStats{
				{Board: "LinkedIn", Position: "Backend Engineer", Admitted: 4, Pages: 2, AIAnalyses: 3, StopReason: crawl.StopPositionQuota},
			},
		}},
		NewRecords: make([]models.JobRecord, 4),
		Records:    make([]models.JobRecord, 10),
		TokenCost:  1200,
	}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "BOARD")
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "position_quota")
	assert.Contains(t, out, "4 new jobs, 10 total, 1200 AI tokens (run 6f1c1c1e-8b1a-4c2e-9d7e-0a1b2c3d4e5f)")
}

func TestPrintAnalysis(t *testing.T) {
	years := 3
	salary := models.SalaryAmount(50000)
	var buf bytes.Buffer
	printAnalysis(&buf, &ai.Analysis{
		TechnologiesRequired:  []string{"Go", "Kafka"},
		ExperienceYearsNeeded: &years,
		SalaryOffered:         &salary,
		TokenCost:             321,
	})
	out := buf.String()

	assert.Contains(t, out, "Required studies:   -")
	assert.Contains(t, out, "Technologies:       Go, Kafka")
	assert.Contains(t, out, "Experience (years): 3")
	assert.Contains(t, out, "Salary offered:     50000")
	assert.Contains(t, out, "Tokens:             321")
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"crawl", "export", "analyze", "detect"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
