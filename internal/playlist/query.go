package playlist

import (
	"strings"
	"unicode/utf8"
)

// AnyLanguage is the language preference that leaves the language out of the query.
const AnyLanguage = "Any"

// DefaultLanguage is used when no preference is given.
const DefaultLanguage = "English"

const (
	minMoodLength = 2
	maxMoodLength = 200
)

var languages = []string{
	"English",
	AnyLanguage,
	"Assamese",
	"Bengali",
	"Bodo",
	"Dogri",
	"Gujarati",
	"Hindi",
	"Kannada",
	"Kashmiri",
	"Konkani",
	"Maithili",
	"Malayalam",
	"Manipuri",
	"Marathi",
	"Nepali",
	"Odia",
	"Punjabi",
	"Sanskrit",
	"Santali",
	"Sindhi",
	"Tamil",
	"Telugu",
	"Urdu",
	"Spanish",
	"French",
	"German",
	"Japanese",
}

// Languages returns the language preferences offered to users, in display order.
func Languages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

// BuildQuery combines a language preference and a vibe into a catalog search query.
func BuildQuery(language, vibe string) string {
	if language == AnyLanguage {
		return vibe + " vibes"
	}
	return language + " " + vibe
}

// ValidateMood trims mood text and checks its length in characters.
func ValidateMood(text string) (string, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	switch {
	case n < minMoodLength:
		return "", &ValidationError{Field: "mood", Message: "Please tell us a bit more about your mood."}
	case n > maxMoodLength:
		return "", &ValidationError{Field: "mood", Message: "Your mood description is a bit long!"}
	}
	return text, nil
}

// normalizeLanguage applies the default preference to blank input.
func normalizeLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return DefaultLanguage
	}
	return language
}

// fallbackDescription is used when the catalog playlist has no description.
func fallbackDescription(vibe string) string {
	return "A playlist for when you're feeling " + strings.ToLower(vibe) + "."
}
