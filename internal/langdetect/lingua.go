package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters is the smallest sample the detector is asked about; shorter
// inputs produce noise rather than a language.
const minLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Detector annotates translation results whose provider did not report a
// detected source language. It is intentionally kept out of provider
// selection; the chain's own source-language handling stays untouched.
type Detector struct{}

func New() *Detector {
	return &Detector{}
}

// DetectISO6391 returns a two-letter ISO 639-1 code for the text, or an
// empty string when the sample is too short or detection is inconclusive.
func (d *Detector) DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return ""
	}

	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
