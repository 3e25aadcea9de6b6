// Package phrase finds keyword phrases in transcribed speech.  Matching
// is on whole words, so "no" does not fire inside "know" or "now".
package phrase

import (
	"strings"
	"unicode"
)

// Words lower-cases s and splits it into words.  Apostrophes stay inside
// words so contractions such as "that's" survive.
func Words(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
}

// ContainsAny reports whether any of phrases occurs in text as a run of
// whole words.
func ContainsAny(text string, phrases []string) bool {
	words := Words(text)
	for _, p := range phrases {
		if containsWords(words, Words(p)) {
			return true
		}
	}
	return false
}

func containsWords(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, w := range needle {
			if haystack[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}
