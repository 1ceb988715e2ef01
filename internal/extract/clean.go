package extract

import (
	"regexp"
	"strings"
)

var (
	tripleQuoted   = regexp.MustCompile(`(?s)""".*?"""|'''.*?'''`)
	quoteConcat    = regexp.MustCompile(`"\s*\+\s*"|'\s*\+\s*'`)
	escapedNewline = regexp.MustCompile(`(?:\\r)?\\n`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	disallowedChar = regexp.MustCompile(`[^\w\s().,=*<>!@#$%^&\[\]{};:?-]`)
)

// Clean normalizes a raw span into query text.
//
// Triple-quoted substrings are dropped entirely (they are documentation, not
// query text), string concatenations and escaped newlines become spaces,
// whitespace is collapsed, and characters outside the allowed set are
// removed. Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := tripleQuoted.ReplaceAllString(raw, "")
	s = quoteConcat.ReplaceAllString(s, " ")
	s = escapedNewline.ReplaceAllString(s, " ")
	s = collapse(s)
	s = disallowedChar.ReplaceAllString(s, "")
	// Removing characters can leave double or edge spaces behind.
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
