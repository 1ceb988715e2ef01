package extract

import (
	"iter"
	"regexp"
	"strings"
)

// actionKeyword starts a candidate span.
var actionKeyword = regexp.MustCompile(`(?i)\b(?:SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\b`)

const terminator = ';'

// Span is a candidate query located in file text.
type Span struct {
	// Start and End are byte offsets; Text is text[Start:End].
	Start int
	End   int
	// Keyword is the offset of the action keyword. It differs from Start
	// when a triple-quote fence directly precedes the keyword.
	Keyword int
	Text    string
}

// Matcher yields candidate spans from a text, one at a time.
// Each span runs from an action keyword to the next ';' (exclusive) or the
// end of the text, whichever comes first.
type Matcher struct {
	text string
	pos  int
}

// NewMatcher returns a matcher positioned at the start of text.
func NewMatcher(text string) *Matcher {
	return &Matcher{text: text}
}

// Reset rewinds the matcher to the start of its text.
func (m *Matcher) Reset() {
	m.pos = 0
}

// Next returns the next span, or false when the text is exhausted.
func (m *Matcher) Next() (Span, bool) {
	if m.pos > len(m.text) {
		return Span{}, false
	}
	region := m.text[m.pos:]
	loc := actionKeyword.FindStringIndex(region)
	if loc == nil {
		m.pos = len(m.text) + 1
		return Span{}, false
	}

	kw := m.pos + loc[0]
	// Leading context never reaches back across a terminator.
	leadAt := m.pos
	if i := strings.LastIndexByte(m.text[m.pos:kw], terminator); i >= 0 {
		leadAt += i + 1
	}
	start := leadAt + leadingFence(m.text[leadAt:kw])

	end := len(m.text)
	if i := strings.IndexByte(m.text[kw:], terminator); i >= 0 {
		end = kw + i
		m.pos = end + 1
	} else {
		m.pos = len(m.text) + 1
	}

	return Span{Start: start, End: end, Keyword: kw, Text: m.text[start:end]}, true
}

// leadingFence returns the offset in lead of a complete triple-quoted block
// that is followed only by whitespace, or len(lead) when there is none.
// A trailing fence only closes a block when lead holds an even number of
// fences; an odd count means it opens the string the keyword sits in.
func leadingFence(lead string) int {
	trimmed := strings.TrimRight(lead, " \t\r\n")
	for _, fence := range []string{`"""`, `'''`} {
		if !strings.HasSuffix(trimmed, fence) || strings.Count(trimmed, fence)%2 != 0 {
			continue
		}
		if i := strings.LastIndex(trimmed[:len(trimmed)-len(fence)], fence); i >= 0 {
			return i
		}
	}
	return len(lead)
}

// Spans returns a lazy sequence over the candidate spans of text.
// The sequence can be ranged over any number of times.
func Spans(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		m := NewMatcher(text)
		for {
			s, ok := m.Next()
			if !ok || !yield(s) {
				return
			}
		}
	}
}

// MatchAll collects every span of text.
func MatchAll(text string) []Span {
	var out []Span
	for s := range Spans(text) {
		out = append(out, s)
	}
	return out
}
