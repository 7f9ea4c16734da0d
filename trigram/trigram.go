// Package trigram computes trigram similarity with the same word splitting and
// padding rules as PostgreSQL's pg_trgm extension, so the in-memory store ranks
// names the way the database does.
package trigram

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultThreshold is the minimum score a fuzzy name match must exceed.
const DefaultThreshold = 0.3

// Set is the set of distinct trigrams of a string.
type Set map[string]struct{}

// Trigrams extracts the trigram set of s. Words are maximal runs of letters and
// digits; each is case folded and padded with two leading blanks and one trailing blank.
func Trigrams(s string) Set {
	set := make(Set)
	for _, word := range words(cases.Fold().String(s)) {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity returns |A∩B| / |A∪B| for the trigram sets of a and b, in [0, 1].
// It is 0 when either side has no trigrams.
func Similarity(a, b string) float64 {
	return Trigrams(a).Similarity(Trigrams(b))
}

// Similarity compares two precomputed sets.
func (s Set) Similarity(other Set) float64 {
	if len(s) == 0 || len(other) == 0 {
		return 0
	}

	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}

	common := 0
	for t := range small {
		if _, ok := large[t]; ok {
			common++
		}
	}

	return float64(common) / float64(len(s)+len(other)-common)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
