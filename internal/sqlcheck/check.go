// Package sqlcheck reports syntax problems and risky patterns in extracted
// queries. Findings are advisory; they never decide whether a query is kept.
package sqlcheck

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	sqllang "github.com/smacker/go-tree-sitter/sql"
)

// SyntaxError locates the first error node of a query's parse tree.
type SyntaxError struct {
	Line    uint32 // 0-indexed
	Column  uint32 // 0-indexed
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line+1, e.Column+1, e.Message)
}

// Validate parses query with the tree-sitter SQL grammar and returns a
// *SyntaxError when the tree contains ERROR or MISSING nodes.
func Validate(ctx context.Context, query string) error {
	src := strings.TrimSpace(query)
	if src == "" {
		return nil
	}
	if !strings.HasSuffix(src, ";") {
		src += ";"
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(sqllang.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return errors.New("tree-sitter returned nil root")
	}
	if !root.HasError() {
		return nil
	}

	if node := firstError(root); node != nil {
		msg := "syntax error"
		if node.IsMissing() {
			msg = fmt.Sprintf("missing %s", node.Type())
		}
		return &SyntaxError{
			Line:    node.StartPoint().Row,
			Column:  node.StartPoint().Column,
			Message: msg,
		}
	}
	return &SyntaxError{Message: "parse tree contains errors"}
}

// firstError does a depth-first search for the first ERROR or MISSING node.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := firstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// Rule names a class of finding.
type Rule string

const (
	// RuleSyntax reports text the SQL grammar cannot parse.
	RuleSyntax Rule = "syntax"
	// RuleNoWhere reports a DELETE or UPDATE without a WHERE clause.
	RuleNoWhere Rule = "no-where"
	// RuleSelectStar reports SELECT *.
	RuleSelectStar Rule = "select-star"
)

// Diagnostic is one finding about a query. Line is 0-based.
type Diagnostic struct {
	Rule    Rule
	Message string
	Line    uint32
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s (%s)", d.Line+1, d.Message, d.Rule)
}

var (
	unfilteredWrite = regexp.MustCompile(`(?i)^\s*(DELETE|UPDATE)\b`)
	whereClause     = regexp.MustCompile(`(?i)\bWHERE\b`)
	selectStar      = regexp.MustCompile(`(?i)\bSELECT\s+(?:DISTINCT\s+)?\*`)
)

// Lint returns lexical findings for query.
func Lint(query string) []Diagnostic {
	var diags []Diagnostic
	if m := unfilteredWrite.FindStringSubmatch(query); m != nil && !whereClause.MatchString(query) {
		diags = append(diags, Diagnostic{
			Rule:    RuleNoWhere,
			Message: fmt.Sprintf("%s without WHERE affects every row", strings.ToUpper(m[1])),
		})
	}
	if loc := selectStar.FindStringIndex(query); loc != nil {
		diags = append(diags, Diagnostic{
			Rule:    RuleSelectStar,
			Message: "SELECT * couples the query to the table layout",
			Line:    uint32(strings.Count(query[:loc[0]], "\n")),
		})
	}
	return diags
}

// Check runs Validate and Lint and merges their findings, syntax first.
func Check(ctx context.Context, query string) []Diagnostic {
	var diags []Diagnostic
	err := Validate(ctx, query)
	var se *SyntaxError
	switch {
	case errors.As(err, &se):
		diags = append(diags, Diagnostic{Rule: RuleSyntax, Message: se.Message, Line: se.Line})
	case err != nil:
		diags = append(diags, Diagnostic{Rule: RuleSyntax, Message: err.Error()})
	}
	return append(diags, Lint(query)...)
}
