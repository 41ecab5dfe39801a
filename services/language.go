package services

import "strings"

const (
	DefaultLanguageCode = "en"
	DefaultLanguageName = "English"
)

// languageNames is the fixed set of answer languages the clients offer.
var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"pa": "Punjabi",
	"or": "Odia",
}

// LanguageName maps a language code to the language the AI should answer in.
// Unknown codes fall back to English.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return DefaultLanguageName
}

// SupportedLanguages returns the code to name table as a copy.
func SupportedLanguages() map[string]string {
	out := make(map[string]string, len(languageNames))
	for code, name := range languageNames {
		out[code] = name
	}
	return out
}
