package format

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tkNone tokenKind = iota
	tkWord
	tkNumber
	tkString
	tkQuoted
	tkOperator
	tkOpen
	tkClose
	tkComma
	tkSemicolon
	tkLineComment
	tkBlockComment
)

type token struct {
	kind  tokenKind
	text  string
	upper string
	// spaceBefore records whitespace or a comment between this token and
	// the previous one in the input.
	spaceBefore bool
	// unary marks a sign operator that binds to the following token.
	unary bool
}

// Longest operators first.
var operators = []string{
	"<=>", "->>",
	"<>", "<=", ">=", "!=", "||", "::", ":=", "=>", "->", "&&", "<<", ">>",
}

var dollarTag = regexp.MustCompile(`^\$(?:[A-Za-z_][A-Za-z0-9_]*)?\$`)

// unaryAfter lists words after which '-' and '+' are signs.
var unaryAfter = map[string]bool{
	"SELECT": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"WHEN": true, "THEN": true, "ELSE": true, "CASE": true, "BETWEEN": true,
	"ON": true, "SET": true, "VALUES": true, "BY": true, "IN": true,
	"LIMIT": true, "OFFSET": true, "RETURN": true, "HAVING": true,
}

func tokenize(s string, d dialect) []token {
	var toks []token
	space := false
	for i := 0; i < len(s); {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v' {
			space = true
			i++
			continue
		}

		var t token
		start := i
		switch {
		case strings.HasPrefix(s[i:], "--") || (d.hashComments && c == '#'):
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				i = len(s)
			} else {
				i += end
			}
			t = token{kind: tkLineComment, text: strings.TrimRight(s[start:i], " \t\r")}
		case strings.HasPrefix(s[i:], "/*"):
			if end := strings.Index(s[i+2:], "*/"); end >= 0 {
				i += 2 + end + 2
			} else {
				i = len(s)
			}
			t = token{kind: tkBlockComment, text: s[start:i]}
		case c == '\'':
			i = scanQuoted(s, i, '\'', d.backslashEscapes)
			t = token{kind: tkString, text: s[start:i]}
		case c == '"':
			i = scanQuoted(s, i, '"', d.backslashEscapes)
			t = token{kind: tkQuoted, text: s[start:i]}
		case strings.IndexByte(d.identQuotes, c) >= 0:
			closing := c
			if c == '[' {
				closing = ']'
			}
			i = scanQuoted(s, i, closing, false)
			t = token{kind: tkQuoted, text: s[start:i]}
		case d.dollarQuotes && c == '$' && dollarTag.MatchString(s[i:]):
			tag := dollarTag.FindString(s[i:])
			if end := strings.Index(s[i+len(tag):], tag); end >= 0 {
				i += len(tag) + end + len(tag)
			} else {
				i = len(s)
			}
			t = token{kind: tkString, text: s[start:i]}
		case c >= '0' && c <= '9':
			i = scanNumber(s, i)
			t = token{kind: tkNumber, text: s[start:i]}
		case c == ':' && i+1 < len(s) && isWordStart(rune(s[i+1]), d):
			i = scanWord(s, i+1, d)
			t = token{kind: tkWord, text: s[start:i]}
		case c == '?':
			i++
			t = token{kind: tkWord, text: "?"}
		case c == '(':
			i++
			t = token{kind: tkOpen, text: "("}
		case c == ')':
			i++
			t = token{kind: tkClose, text: ")"}
		case c == ',':
			i++
			t = token{kind: tkComma, text: ","}
		case c == ';':
			i++
			t = token{kind: tkSemicolon, text: ";"}
		default:
			r, _ := utf8.DecodeRuneInString(s[i:])
			if isWordStart(r, d) {
				i = scanWord(s, i, d)
				t = token{kind: tkWord, text: s[start:i]}
				break
			}
			op := ""
			for _, candidate := range operators {
				if strings.HasPrefix(s[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				_, size := utf8.DecodeRuneInString(s[i:])
				op = s[i : i+size]
			}
			i += len(op)
			t = token{kind: tkOperator, text: op}
			if (op == "-" || op == "+") && signPosition(toks) {
				t.unary = true
			}
		}

		if t.kind == tkWord {
			t.upper = strings.ToUpper(t.text)
		}
		t.spaceBefore = space
		space = t.kind == tkBlockComment
		toks = append(toks, t)
	}
	return toks
}

// scanQuoted returns the offset just past the literal opened at s[i].
// A doubled closing character is an escaped one.
func scanQuoted(s string, i int, closing byte, backslash bool) int {
	j := i + 1
	for j < len(s) {
		switch {
		case backslash && s[j] == '\\':
			j += 2
		case s[j] == closing:
			if j+1 < len(s) && s[j+1] == closing {
				j += 2
				continue
			}
			return j + 1
		default:
			j++
		}
	}
	return len(s)
}

func scanNumber(s string, i int) int {
	j := i
	for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
		j++
	}
	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && s[k] >= '0' && s[k] <= '9' {
			j = k
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
		}
	}
	return j
}

func scanWord(s string, i int, d dialect) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordPart(r, d) {
			break
		}
		i += size
	}
	return i
}

func isWordStart(r rune, d dialect) bool {
	return unicode.IsLetter(r) || r == '_' || r == '@' || r == '$' || (r == '#' && !d.hashComments)
}

func isWordPart(r rune, d dialect) bool {
	return isWordStart(r, d) || unicode.IsDigit(r)
}

func signPosition(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	prev := toks[len(toks)-1]
	switch prev.kind {
	case tkOperator, tkOpen, tkComma, tkSemicolon:
		return true
	case tkWord:
		return unaryAfter[prev.upper]
	}
	return false
}
