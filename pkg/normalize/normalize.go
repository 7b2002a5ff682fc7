// Package normalize folds free-text names coming from spreadsheets and forms
// into a comparable key.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key strips diacritics (NFD + Mn removal), collapses whitespace and upper-cases the value.
// "  São   Paulo " and "SAO PAULO" yield the same key.
func Key(value string) string {
	if value == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToUpper(strings.Join(strings.Fields(folded), " "))
}

// Equal reports whether two values match after normalization.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Digits keeps only ASCII digits.
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Upper trims and upper-cases a display value without touching accents.
func Upper(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}
