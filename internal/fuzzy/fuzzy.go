// Package fuzzy scores how alike two spoken names are.  Speech-to-text
// output drops letters, inserts spaces and swaps homophones, so names
// are normalized first and then compared both as whole strings and as
// best-aligned substrings.
package fuzzy

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultThreshold is the minimum Score at which two names are treated
// as the same customer.
const DefaultThreshold = 75

var lower = cases.Lower(language.Und)

// Normalize lower-cases s and removes periods and all whitespace, so
// "R a g. I" and "ragi" compare equal.
func Normalize(s string) string {
	s = lower.String(s)
	return strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Ratio is the whole-string similarity of a and b on a 0-100 scale.
// It returns 0 when either input is empty.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return percent(newSequenceMatcher(ra, rb).ratio())
}

// PartialRatio is the similarity of the shorter string against the
// best-aligned window of the longer one, on a 0-100 scale.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) == 0 || len(longer) == 0 {
		return 0
	}
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for _, blk := range newSequenceMatcher(shorter, longer).matchingBlocks() {
		start := blk.j - blk.i
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := newSequenceMatcher(shorter, longer[start:end]).ratio()
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return percent(best)
}

// Score normalizes both names and returns the larger of Ratio and
// PartialRatio.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	full := Ratio(na, nb)
	if partial := PartialRatio(na, nb); partial > full {
		return partial
	}
	return full
}

// Match reports whether Score(a, b) reaches threshold.
func Match(a, b string, threshold int) bool {
	return Score(a, b) >= threshold
}

func percent(r float64) int {
	return int(math.RoundToEven(100 * r))
}
