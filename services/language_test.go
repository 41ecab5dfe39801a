package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"en":    "English",
		"hi":    "Hindi",
		"pa":    "Punjabi",
		"or":    "Odia",
		"HI":    "Hindi",
		" pa ":  "Punjabi",
		"":      "English",
		"fr":    "English",
		"en-US": "English",
	}
	for code, want := range tests {
		assert.Equal(t, want, LanguageName(code), "code %q", code)
	}
}

func TestSupportedLanguagesIsACopy(t *testing.T) {
	langs := SupportedLanguages()
	assert.Len(t, langs, 4)

	langs["fr"] = "French"
	assert.Equal(t, "English", LanguageName("fr"))
}
