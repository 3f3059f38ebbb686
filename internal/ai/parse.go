package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

var firstNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParseAnalysis reads a model answer. Only keys present with a non-null value
// are set; types are coerced leniently because models drift from the schema.
func ParseAnalysis(content string) (*Analysis, error) {
	cleaned := cleanMarkdownJSON(content)
	if cleaned == "" {
		return nil, ErrNoContent
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response (raw length: %d): %w", len(cleaned), err)
	}

	analysis := &Analysis{}
	if v, ok := present(raw, "required_studies"); ok {
		if s, ok := asString(v); ok {
			analysis.RequiredStudies = &s
		}
	}
	if v, ok := present(raw, "technologies_required"); ok {
		if list, ok := asStringList(v); ok {
			analysis.TechnologiesRequired = list
		}
	}
	if v, ok := present(raw, "experience_years_needed"); ok {
		if n, ok := asInt(v); ok {
			analysis.ExperienceYearsNeeded = &n
		}
	}
	if v, ok := present(raw, "salary_offered"); ok {
		if s, ok := asSalary(v); ok {
			analysis.SalaryOffered = &s
		}
	}
	return analysis, nil
}

func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func asString(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return strings.Join(list, ", "), true
	}
	return "", false
}

func asStringList(v json.RawMessage) ([]string, bool) {
	var list []any
	if err := json.Unmarshal(v, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	}
	return nil, false
}

//asInt takes the first number it finds: "3+ years" is 3, "3-5" is 3
func asInt(v json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return clamp(f), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	m := firstNumber.FindString(s)
	if m == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return clamp(f), true
}

func asSalary(v json.RawMessage) (models.Salary, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return models.SalaryAmount(clamp(f)), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return models.Salary{}, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return models.SalaryAmount(n), true
	}
	if s == "" {
		return models.SalaryAmount(0), true
	}
	return models.SalaryText(s), true
}

func clamp(f float64) int {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return int(f)
}
