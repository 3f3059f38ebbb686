// Package language wraps lingua-go behind a small detect API that returns
// lower-case ISO 639-1 codes.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Unknown is returned for blank text and for text no model recognizes.
const Unknown = "unknown"

type Lingua struct {
	detector lingua.LanguageDetector
}

// NewLingua builds a detector over every language lingua knows. Model loading
// happens lazily on first use.
func NewLingua() *Lingua {
	return &Lingua{
		detector: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
	}
}

func (l *Lingua) Detect(text string) string {
	code, _ := l.DetectWithConfidence(text)
	return code
}

// DetectWithConfidence also reports the detector's confidence in [0, 1].
func (l *Lingua) DetectWithConfidence(text string) (string, float64) {
	if strings.TrimSpace(text) == "" {
		return Unknown, 0
	}
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return Unknown, 0
	}
	code := strings.ToLower(lang.IsoCode639_1().String())
	return code, l.detector.ComputeLanguageConfidence(text, lang)
}
