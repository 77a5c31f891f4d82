// Package normalize folds display names into search terms.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Name returns the search term for a display name: the canonical
// decomposition with everything but alphanumerics removed, lowercased.
// Diacritics are dropped, so "Müller" and "Muller" share a term.
func Name(name string) string {
	decomposed := norm.NFD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if !isAlnum(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Words splits a query into words at every rune that is neither
// alphanumeric nor a combining mark, and folds each word.
func Words(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !isAlnum(r) && !unicode.IsMark(r)
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := Name(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// isAlnum reports whether r is alphabetic or numeric. Numeric covers
// letter numbers and other numbers too, so "Ⅻ", "½" and "²" are kept.
func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r)
}
