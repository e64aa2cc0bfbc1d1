// Package sanitize cleans free text typed by users or produced by a model
// before it is stored or posted to a platform.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

// MaxReplyLength is the longest comment reply the platforms accept, in runes.
const MaxReplyLength = 2200

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	blankRunPattern  = regexp.MustCompile(`[ \t\f\v]+`)
	emptyLinePattern = regexp.MustCompile(`\n{3,}`)
)

// Text strips markup, decodes entities and collapses runs of blanks.
// Line breaks survive, but never more than one empty line in a row.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = html.UnescapeString(out)
	// Encoded tags only appear after decoding.
	out = tagPattern.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = blankRunPattern.ReplaceAllString(out, " ")
	out = emptyLinePattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// TextPtr applies Text to an optional value.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

// Reply cleans reply text and keeps it within MaxReplyLength.
func Reply(s string) string {
	return Truncate(Text(s), MaxReplyLength)
}
