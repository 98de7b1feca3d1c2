// Package language detects whether a message is Indonesian or English.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Supported language codes
const (
	Indonesian = "id"
	English    = "en"
)

// DefaultLanguage is used when detection is not possible
const DefaultLanguage = Indonesian

// Detector classifies text as Indonesian or English
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to the supported languages
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Indonesian, lingua.English).
			Build(),
	}
}

// Detect returns "id" or "en" for the given text. Very short or
// undecidable input falls back to the default language
func (d *Detector) Detect(text string) string {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 3 {
		return DefaultLanguage
	}

	detected, ok := d.detector.DetectLanguageOf(trimmed)
	if !ok {
		return DefaultLanguage
	}

	switch detected {
	case lingua.English:
		return English
	default:
		return Indonesian
	}
}

// Normalize maps a caller-supplied language code onto a supported one,
// returning empty for unsupported values
func Normalize(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case Indonesian:
		return Indonesian
	case English:
		return English
	default:
		return ""
	}
}
