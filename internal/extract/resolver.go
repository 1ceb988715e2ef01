package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Context is the function a query belongs to.
type Context struct {
	Name        string
	Description string
}

// Resolver finds the function context for a query from the declarations
// that precede it in the file.
type Resolver interface {
	// Resolve returns the context for a query that follows preceding.
	Resolve(preceding string) Context
	// Index scans a whole file once so that many offsets can be resolved.
	Index(content string) Declarations
}

// blockComment matches a /* */ or /** */ comment without crossing its end.
const blockComment = `/\*(?:[^*]|\*+[^*/])*\*+/`

var javaResolver = &patternResolver{
	patterns: []*regexp.Regexp{
		regexp.MustCompile(
			`(?:(?P<doc>` + blockComment + `)\s*)?` +
				`(?:@[A-Za-z_][\w.]*(?:\([^)]*\))?\s*)*` +
				`\b(?:(?:public|protected|private|static|final|abstract|synchronized|native|default|strictfp)\s+)*` +
				`(?:(?P<type>[A-Za-z_][\w.]*(?:<[\w.,?\s<>\[\]]*>)?(?:\[\])*)\s+)?` +
				`(?P<name>[A-Za-z_]\w*)\s*\((?P<params>[^)]*)\)\s*` +
				`(?:throws\s+[\w.]+(?:\s*,\s*[\w.]+)*\s*)?\{`),
	},
	reservedNames: wordSet("if", "for", "while", "switch", "catch", "synchronized",
		"return", "new", "else", "do", "try", "throw", "case", "super", "this"),
	reservedTypes: wordSet("new", "return", "else", "throw", "case", "package", "import"),
	skipMembers:   true,
	stripDoc:      stripBlockComment,
}

var javaScriptResolver = &patternResolver{
	patterns: []*regexp.Regexp{
		// function name(...) and its export/async forms
		regexp.MustCompile(
			`(?:(?P<doc>` + blockComment + `)\s*)?` +
				`(?:export\s+(?:default\s+)?)?(?:async\s+)?` +
				`\bfunction\b\s*\*?\s*(?P<name>[A-Za-z_$][\w$]*)\s*\((?P<params>[^)]*)\)`),
		// name = function(...), name = (...) =>, name: x =>
		regexp.MustCompile(
			`(?:(?P<doc>` + blockComment + `)\s*)?` +
				`(?:export\s+)?(?:(?:const|let|var)\s+)?` +
				`(?P<name>[A-Za-z_$][\w$]*)\s*[=:]\s*(?:async\s+)?` +
				`(?:\bfunction\b\s*\*?\s*[\w$]*\s*\((?P<params>[^)]*)\)|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`),
		// class method shorthand: async name(...) {
		regexp.MustCompile(
			`(?m)(?:(?P<doc>` + blockComment + `)\s*)?` +
				`^[ \t]*(?:(?:static|async|get|set|public|private|protected|override|readonly)[ \t]+)*\*?[ \t]*` +
				`(?P<name>[A-Za-z_$][\w$]*)[ \t]*\((?P<params>[^()]*)\)(?:[ \t]*:[^{;\n]+)?\s*\{`),
	},
	reservedNames: wordSet("if", "for", "while", "switch", "catch", "return",
		"function", "typeof", "new", "case", "else", "do", "try", "with", "await"),
	stripDoc: stripBlockComment,
}

var pythonResolver = &patternResolver{
	patterns: []*regexp.Regexp{
		regexp.MustCompile(
			`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+(?P<name>[A-Za-z_]\w*)[ \t]*\((?P<params>(?:[^()]|\((?:[^()]|\([^()]*\))*\))*)\)[^:\n]*:[ \t]*(?:#[^\n]*)?` +
				`(?:\n[ \t]*(?P<doc>[rRuU]?"""(?s:.*?)"""|[rRuU]?'''(?s:.*?)'''))?`),
	},
	stripDoc: stripDocstring,
}

type globalResolver struct{}

func (globalResolver) Resolve(string) Context {
	return Context{Name: GlobalFunction}
}

func (globalResolver) Index(string) Declarations { return Declarations{} }

type declaration struct {
	at        int // offset of the name
	headerEnd int
	end       int
	ctx       Context
}

// Declarations are the function declarations of one file in offset order.
type Declarations struct {
	decls []declaration
}

// At returns the context of the last declaration whose header ends at or
// before offset, or Global when there is none. A documentation block that
// extends past offset is not attached.
func (d Declarations) At(offset int) Context {
	i := sort.Search(len(d.decls), func(i int) bool { return d.decls[i].at >= offset })
	for i--; i >= 0; i-- {
		decl := d.decls[i]
		if decl.headerEnd > offset {
			continue
		}
		ctx := decl.ctx
		if decl.end > offset {
			ctx.Description = ""
		}
		return ctx
	}
	return Context{Name: GlobalFunction}
}

// patternResolver picks the declaration whose name appears last before
// the query across all of its patterns.
type patternResolver struct {
	patterns      []*regexp.Regexp
	reservedNames map[string]bool
	reservedTypes map[string]bool
	skipMembers   bool // reject obj.name, which is a call
	stripDoc      func(string) string
}

func (r *patternResolver) Resolve(preceding string) Context {
	return r.Index(preceding).At(len(preceding))
}

// Index collects the accepted declarations of every pattern. When two
// patterns name the same offset the earlier pattern wins.
func (r *patternResolver) Index(content string) Declarations {
	var decls []declaration
	for _, re := range r.patterns {
		nameIdx := re.SubexpIndex("name")
		docIdx := re.SubexpIndex("doc")
		typeIdx := re.SubexpIndex("type")
		paramsIdx := re.SubexpIndex("params")
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			at := m[2*nameIdx]
			if r.skipMembers && at > 0 && content[at-1] == '.' {
				continue
			}
			name := submatch(content, m, nameIdx)
			if r.reservedNames[name] || r.reservedTypes[submatch(content, m, typeIdx)] {
				continue
			}
			headerEnd := m[2*nameIdx+1]
			if paramsIdx >= 0 && m[2*paramsIdx+1] > headerEnd {
				headerEnd = m[2*paramsIdx+1]
			}
			decls = append(decls, declaration{
				at:        at,
				headerEnd: headerEnd,
				end:       m[1],
				ctx:       Context{Name: name, Description: r.stripDoc(submatch(content, m, docIdx))},
			})
		}
	}
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].at < decls[j].at })
	out := decls[:0]
	for _, d := range decls {
		if len(out) > 0 && out[len(out)-1].at == d.at {
			continue
		}
		out = append(out, d)
	}
	return Declarations{decls: out}
}

func submatch(s string, m []int, idx int) string {
	if idx < 0 || 2*idx+1 >= len(m) || m[2*idx] < 0 {
		return ""
	}
	return s[m[2*idx]:m[2*idx+1]]
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func stripBlockComment(c string) string {
	c = strings.TrimPrefix(c, "/*")
	c = strings.TrimSuffix(c, "*/")
	return joinDocLines(c, "*")
}

func stripDocstring(d string) string {
	d = strings.TrimLeft(d, "rRuU")
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(d, q) && strings.HasSuffix(d, q) && len(d) >= 2*len(q) {
			d = d[len(q) : len(d)-len(q)]
			break
		}
	}
	return joinDocLines(d, "")
}

// joinDocLines trims every line (and the marker cutset at its edges), drops
// blank lines and joins the rest with single spaces.
func joinDocLines(s, marker string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if marker != "" {
			line = strings.TrimSpace(strings.Trim(line, marker))
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
