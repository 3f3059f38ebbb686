package filter

import (
	"strings"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

// Language gates records on their detected language. The title checkpoint
// runs before the detail page is fetched, the description checkpoint after.
// With no desired language both checkpoints always pass.
type Language struct {
	Desired string
}

func NewLanguage(desired string) Language {
	return Language{Desired: strings.ToLower(strings.TrimSpace(desired))}
}

func (l Language) AcceptTitle(rec *models.JobRecord) bool {
	return l.Matches(rec.TitleLanguage)
}

func (l Language) AcceptDescription(rec *models.JobRecord) bool {
	return l.Matches(rec.DescriptionLanguage)
}

// Matches compares a detected code with the desired one, ignoring case.
func (l Language) Matches(code string) bool {
	if l.Desired == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(code), l.Desired)
}
