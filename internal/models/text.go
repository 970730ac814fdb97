package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanSpaces collapses every run of whitespace into a single space and trims both ends.
func CleanSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// NormalizeText applies the capitalization and whitespace rules used for
// captions and comments. Capitalization runs first, so leading whitespace
// leaves the first word lower-cased.
func NormalizeText(s string) string {
	return CleanSpaces(Capitalize(s))
}
