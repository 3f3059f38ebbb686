package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

// ErrNoContent is returned when a provider answers without any text.
var ErrNoContent = errors.New("ai: empty completion")

// Analysis holds the fields extracted from one description. A nil field means
// the model did not return it.
type Analysis struct {
	RequiredStudies       *string
	TechnologiesRequired  []string
	ExperienceYearsNeeded *int
	SalaryOffered         *models.Salary
	TokenCost             int
}

// Analyzer extracts structured fields from a job description.
type Analyzer interface {
	Analyze(ctx context.Context, description string) (*Analysis, error)
}

// Completion is one raw model answer and what it cost.
type Completion struct {
	Content string
	Tokens  int
}

// Completer is a chat model: one system prompt, one user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

// PromptOptions narrows what the model is asked to extract.
type PromptOptions struct {
	SkipSalary       bool
	SkipTechnologies bool
}

// LLMAnalyzer turns any Completer into an Analyzer.
type LLMAnalyzer struct {
	completer Completer
	system    string
	opts      PromptOptions
}

func NewAnalyzer(c Completer, opts PromptOptions) *LLMAnalyzer {
	return &LLMAnalyzer{completer: c, system: buildSystemPrompt(opts), opts: opts}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, description string) (*Analysis, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("ai: empty description")
	}
	completion, err := a.completer.Complete(ctx, a.system, description)
	if err != nil {
		return nil, err
	}
	analysis, err := ParseAnalysis(completion.Content)
	if err != nil {
		return nil, err
	}
	//fields that were not asked for are never merged
	if a.opts.SkipSalary {
		analysis.SalaryOffered = nil
	}
	if a.opts.SkipTechnologies {
		analysis.TechnologiesRequired = nil
	}
	analysis.TokenCost = completion.Tokens
	return analysis, nil
}

// buildSystemPrompt creates the job cataloger instruction
func buildSystemPrompt(opts PromptOptions) string {
	var b strings.Builder
	b.WriteString(`You are a job cataloger. Extract and return a JSON object with the following fields from the given job description:
- "experience_years_needed": the number of years of experience required, as an integer.
- "required_studies": the degree or education level required for the position (e.g. "Bachelor's in Computer Science").`)
	if !opts.SkipTechnologies {
		b.WriteString("\n- \"technologies_required\": a list of programming languages, frameworks or tools mentioned as required.")
	}
	if !opts.SkipSalary {
		b.WriteString("\n- \"salary_offered\": the annual salary offered as an integer (e.g. 80000). If a range is given, use the lower bound.")
	}
	b.WriteString("\n\nIf no explicit experience requirement is found, return 0.\nIf no required studies are mentioned, return \"Not specified\".")
	if !opts.SkipTechnologies {
		b.WriteString("\nIf no technologies are mentioned, return an empty list.")
	}
	if !opts.SkipSalary {
		b.WriteString("\nIf no salary is mentioned, return 0.")
	}
	b.WriteString("\n\nReturn ONLY the raw JSON object, without markdown fences or commentary.")
	return b.String()
}

// cleanMarkdownJSON removes backticks and "json" prefix if the AI model tries to be helpful
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	content = strings.TrimSpace(content)
	//some models wrap the object in prose
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start > 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
