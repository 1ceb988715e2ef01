// Package extract locates database queries embedded in source text and
// annotates them with the function they appear in.
//
// Everything here is lexical: candidate spans are found with regular
// expressions, and the enclosing function is approximated by the nearest
// declaration that precedes the span in the file. Nesting is not tracked, so a
// query inside a nested block that follows a sibling declaration is attributed
// to that sibling. This is a known limitation of the heuristic.
package extract

// GlobalFunction is the function name given to queries with no preceding
// declaration (plain .sql files, top-level script code).
const GlobalFunction = "Global"

// QueryRecord is one extracted query.
type QueryRecord struct {
	// RawQuery is the span as matched, before cleaning.
	RawQuery string
	// CleanedQuery is RawQuery after Clean.
	CleanedQuery string
	// FunctionName is the nearest preceding function, or GlobalFunction.
	FunctionName string
	// Description is the documentation attached to that function, if any.
	Description string

	// SourcePath is the file the query came from. Set by the caller.
	SourcePath string
	// Offset is the byte offset of the span in the file.
	Offset int
	// Line is the 1-based line on which the span starts.
	Line int
}
