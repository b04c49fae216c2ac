// Package lang models the output language requested in prompts.
package lang

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid indicates an invalid language code was specified.
var ErrInvalid = errors.New("invalid language code")

// names maps ISO 639-1 codes and common locales to the name used in prompts.
var names = map[string]string{
	"ar":    "Arabic",
	"da":    "Danish",
	"de":    "German",
	"en":    "English",
	"en-gb": "British English",
	"en-us": "American English",
	"es":    "Spanish",
	"es-mx": "Mexican Spanish",
	"fi":    "Finnish",
	"fr":    "French",
	"fr-ca": "Canadian French",
	"hi":    "Hindi",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"nl":    "Dutch",
	"no":    "Norwegian",
	"pl":    "Polish",
	"pt":    "Portuguese",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"ro":    "Romanian",
	"ru":    "Russian",
	"sv":    "Swedish",
	"tr":    "Turkish",
	"uk":    "Ukrainian",
	"zh":    "Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Language is a validated output language. The zero value means
// "no instruction": prompts then let the model follow the input language.
type Language struct {
	code string
}

// Parse validates a language code such as "es", "pt-BR" or "pt_br".
// An empty string yields the zero Language.
func Parse(s string) (Language, error) {
	code := Normalize(strings.TrimSpace(s))
	if code == "" {
		return Language{}, nil
	}
	if _, ok := names[BaseCode(code)]; !ok {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'es', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{code: code}, nil
}

// MustParse parses a language code, panicking if invalid.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the normalized code ("pt-br").
func (l Language) String() string {
	return l.code
}

// IsZero reports whether no language was requested.
func (l Language) IsZero() bool {
	return l.code == ""
}

// IsEnglish reports whether l is any English variant.
func (l Language) IsEnglish() bool {
	return BaseCode(l.code) == "en"
}

// DisplayName returns the human-readable name used in prompt instructions,
// falling back to the base language and then to the code itself.
func (l Language) DisplayName() string {
	if name, ok := names[l.code]; ok {
		return name
	}
	if name, ok := names[BaseCode(l.code)]; ok {
		return name
	}
	return l.code
}

// Normalize lowercases a code and uses hyphens as separator: "pt_BR" -> "pt-br".
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// BaseCode extracts the ISO 639-1 part of a locale: "pt-br" -> "pt".
func BaseCode(code string) string {
	normalized := Normalize(code)
	if base, _, found := strings.Cut(normalized, "-"); found {
		return base
	}
	return normalized
}
