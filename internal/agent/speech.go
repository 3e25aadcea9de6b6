package agent

import (
	"regexp"
	"strings"
)

var (
	mdLink     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	mdBullet   = regexp.MustCompile(`(?m)^\s*[-*+•]\s+`)
	mdEmphasis = regexp.MustCompile("\\*{1,3}|_{2,3}|`+|~~")
	spaces     = regexp.MustCompile(`\s+`)
)

// Speakable strips markdown from a model reply and folds it onto one
// line so it can be read aloud as is.
func Speakable(text string) string {
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdBullet.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "")
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}
