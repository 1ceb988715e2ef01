// Package format lays out SQL text one clause per line, in the shape the
// sql-formatter family of tools produces.
package format

import (
	"slices"
	"strings"

	"github.com/Rocket457/identificar-e-formatar-queries/api"
)

// Parenthesized groups up to this width without clauses stay on one line.
const inlineMaxLen = 50

type phraseKind int

const (
	phraseClause phraseKind = iota + 1
	phraseSetOp
	phraseJoin
	phraseLogic
)

type phrase struct {
	words []string
	kind  phraseKind
}

var phraseTable = buildPhrases(map[phraseKind][]string{
	phraseClause: {
		"SELECT", "SELECT DISTINCT", "SELECT ALL", "FROM", "WHERE", "GROUP BY",
		"ORDER BY", "HAVING", "LIMIT", "OFFSET", "SET", "VALUES", "INSERT INTO",
		"INSERT", "REPLACE INTO", "UPDATE", "DELETE FROM", "DELETE", "RETURNING",
		"WITH", "WITH RECURSIVE", "WINDOW", "QUALIFY", "FOR UPDATE",
		"ON DUPLICATE KEY UPDATE",
	},
	phraseSetOp: {
		"UNION", "UNION ALL", "UNION DISTINCT", "INTERSECT", "EXCEPT", "MINUS",
	},
	phraseJoin: {
		"JOIN", "INNER JOIN", "LEFT JOIN", "LEFT OUTER JOIN", "RIGHT JOIN",
		"RIGHT OUTER JOIN", "FULL JOIN", "FULL OUTER JOIN", "CROSS JOIN",
		"NATURAL JOIN", "CROSS APPLY", "OUTER APPLY", "STRAIGHT_JOIN",
	},
	phraseLogic: {"AND", "OR"},
})

// buildPhrases indexes phrases by first word, longest first.
func buildPhrases(src map[phraseKind][]string) map[string][]phrase {
	out := make(map[string][]phrase)
	for kind, list := range src {
		for _, p := range list {
			words := strings.Fields(p)
			out[words[0]] = append(out[words[0]], phrase{words: words, kind: kind})
		}
	}
	for _, list := range out {
		slices.SortFunc(list, func(a, b phrase) int { return len(b.words) - len(a.words) })
	}
	return out
}

// matchPhrase returns the keyword phrase starting at toks[i] and its length
// in tokens, or zero.
func matchPhrase(toks []token, i int) (phrase, int) {
	if toks[i].kind != tkWord {
		return phrase{}, 0
	}
	for _, p := range phraseTable[toks[i].upper] {
		if i+len(p.words) > len(toks) {
			continue
		}
		ok := true
		for k, w := range p.words {
			if t := toks[i+k]; t.kind != tkWord || t.upper != w {
				ok = false
				break
			}
		}
		if ok {
			return p, len(p.words)
		}
	}
	return phrase{}, 0
}

// Format lays out query for the dialect d. Empty input yields "".
func Format(query string, d api.Dialect) (string, error) {
	lang, err := lookupDialect(d.Language)
	if err != nil {
		return "", err
	}
	width := d.TabWidth
	if width <= 0 {
		width = DefaultTabWidth
	}
	between := d.LinesBetweenQueries
	if between < 0 {
		between = DefaultLinesBetweenQueries
	}

	p := &printer{tab: strings.Repeat(" ", width), between: between, frames: []frame{{}}}
	p.print(tokenize(query, lang))
	return p.String(), nil
}

type frame struct {
	base   int  // indent of clause keywords in this frame
	outer  int  // indent to restore when the frame closes
	clause bool // a clause body is open
}

type printer struct {
	tab     string
	between int

	lines   []string
	cur     strings.Builder
	indent  int
	prev    token
	frames  []frame
	inRange bool // a BETWEEN is waiting for its AND
}

func (p *printer) top() *frame { return &p.frames[len(p.frames)-1] }

func (p *printer) print(toks []token) {
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tkWord:
			if ph, n := matchPhrase(toks, i); n > 0 && !(ph.kind == phraseLogic && p.inRange) {
				words := make([]string, n)
				for k := range n {
					words[k] = toks[i+k].text
				}
				p.keyword(ph.kind, token{kind: tkWord, text: strings.Join(words, " "), upper: t.upper, spaceBefore: t.spaceBefore})
				i += n - 1
				continue
			}
			if t.upper == "AND" {
				p.inRange = false
			}
			if t.upper == "BETWEEN" {
				p.inRange = true
			}
			p.write(t)
		case tkOpen:
			if end, text, ok := inlineGroup(toks, i); ok {
				p.writeText(text, needSpace(p.prev, t))
				p.prev = toks[end]
				i = end
				continue
			}
			p.write(t)
			p.frames = append(p.frames, frame{base: p.indent + 1, outer: p.indent})
			p.indent++
			p.newline()
		case tkClose:
			if len(p.frames) == 1 {
				p.write(t)
				continue
			}
			f := p.frames[len(p.frames)-1]
			p.frames = p.frames[:len(p.frames)-1]
			p.indent = f.outer
			p.newline()
			p.write(t)
		case tkComma:
			p.write(t)
			if len(p.frames) > 1 || p.top().clause {
				p.newline()
			}
		case tkSemicolon:
			p.write(t)
			p.frames = []frame{{}}
			p.indent = 0
			p.inRange = false
			p.newline()
			for range p.between {
				p.lines = append(p.lines, "")
			}
		case tkLineComment:
			p.write(t)
			p.newline()
		default:
			p.write(t)
		}
	}
}

func (p *printer) keyword(kind phraseKind, t token) {
	f := p.top()
	switch kind {
	case phraseClause:
		p.indent = f.base
		p.newline()
		p.write(t)
		p.indent = f.base + 1
		p.newline()
		f.clause = true
	case phraseSetOp:
		p.indent = f.base
		p.newline()
		p.write(t)
		p.newline()
		f.clause = false
	case phraseJoin:
		p.indent = f.base
		if f.clause {
			p.indent++
		}
		p.newline()
		p.write(t)
	case phraseLogic:
		p.newline()
		p.write(t)
	}
}

func (p *printer) write(t token) {
	p.writeText(t.text, needSpace(p.prev, t))
	p.prev = t
}

func (p *printer) writeText(text string, space bool) {
	if p.cur.Len() == 0 {
		for range p.indent {
			p.cur.WriteString(p.tab)
		}
	} else if space {
		p.cur.WriteByte(' ')
	}
	p.cur.WriteString(text)
}

func (p *printer) newline() {
	if p.cur.Len() == 0 {
		return
	}
	p.lines = append(p.lines, strings.TrimRight(p.cur.String(), " "))
	p.cur.Reset()
}

func (p *printer) String() string {
	p.newline()
	return strings.Trim(strings.Join(p.lines, "\n"), "\n")
}

// inlineGroup renders the parenthesized group opened at toks[i] on one line
// when it is closed, short and holds no clause or comment.
func inlineGroup(toks []token, i int) (int, string, bool) {
	depth := 0
	end := -1
	for j := i; j < len(toks) && end < 0; j++ {
		switch toks[j].kind {
		case tkOpen:
			depth++
		case tkClose:
			depth--
			if depth == 0 {
				end = j
			}
		case tkLineComment, tkSemicolon:
			return 0, "", false
		case tkWord:
			if ph, n := matchPhrase(toks, j); n > 0 && (ph.kind == phraseClause || ph.kind == phraseSetOp) {
				return 0, "", false
			}
		}
	}
	if end < 0 {
		return 0, "", false
	}

	var b strings.Builder
	for k := i; k <= end; k++ {
		if k > i && needSpace(toks[k-1], toks[k]) {
			b.WriteByte(' ')
		}
		b.WriteString(toks[k].text)
		if b.Len() > inlineMaxLen {
			return 0, "", false
		}
	}
	return end, b.String(), true
}

func needSpace(prev, cur token) bool {
	switch {
	case prev.kind == tkNone:
		return false
	case cur.kind == tkComma, cur.kind == tkSemicolon, cur.kind == tkClose:
		return false
	case prev.kind == tkOpen:
		return false
	case isOp(cur, ".") || isOp(prev, "."), isOp(cur, "::") || isOp(prev, "::"):
		return false
	case isOp(prev, "[") || isOp(cur, "]"), isOp(cur, "[") && !cur.spaceBefore:
		return false
	case prev.unary:
		return false
	case cur.kind == tkOpen:
		return cur.spaceBefore || !(prev.kind == tkWord || prev.kind == tkQuoted || prev.kind == tkClose)
	}
	return true
}

func isOp(t token, text string) bool {
	return t.kind == tkOperator && t.text == text
}
