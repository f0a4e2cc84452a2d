package gateway

import (
	"sort"
	"strings"

	"horse.fit/transgate/internal/language"
)

// LanguageOption is one selectable target language for API consumers.
type LanguageOption struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Native string `json:"native,omitempty"`
}

type languageLabels struct {
	english string
	native  string
}

var supportedLanguageLabels = map[string]languageLabels{
	"ar": {english: "Arabic", native: "العربية"},
	"de": {english: "German", native: "Deutsch"},
	"en": {english: "English", native: "English"},
	"es": {english: "Spanish", native: "Español"},
	"fr": {english: "French", native: "Français"},
	"id": {english: "Indonesian", native: "Bahasa Indonesia"},
	"it": {english: "Italian", native: "Italiano"},
	"ja": {english: "Japanese", native: "日本語"},
	"ko": {english: "Korean", native: "한국어"},
	"pl": {english: "Polish", native: "Polski"},
	"pt": {english: "Portuguese", native: "Português"},
	"ru": {english: "Russian", native: "Русский"},
	"th": {english: "Thai", native: "ไทย"},
	"tr": {english: "Turkish", native: "Türkçe"},
	"uk": {english: "Ukrainian", native: "Українська"},
	"vi": {english: "Vietnamese", native: "Tiếng Việt"},
	"zh": {english: "Chinese", native: "中文"},
}

// SupportedLanguageCodes lists the catalogued target languages, sorted.
func SupportedLanguageCodes() []string {
	codes := make([]string, 0, len(supportedLanguageLabels))
	for code := range supportedLanguageLabels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// LanguageOptions builds the language list served by the API, with an "auto"
// source option first.
func LanguageOptions() []LanguageOption {
	options := []LanguageOption{{Code: "auto", Label: "Detect language"}}
	for _, code := range SupportedLanguageCodes() {
		labels := supportedLanguageLabels[code]
		options = append(options, LanguageOption{
			Code:   code,
			Label:  labels.english,
			Native: labels.native,
		})
	}
	return options
}

// languageLabel resolves a human-readable name for a language code, falling
// back to the uppercased code for anything outside the catalogue.
func languageLabel(code string) string {
	normalized := language.NormalizeCode(code)
	if labels, ok := supportedLanguageLabels[normalized]; ok {
		return labels.english
	}
	fallback := strings.TrimSpace(code)
	if fallback == "" {
		return "English"
	}
	return strings.ToUpper(fallback)
}
