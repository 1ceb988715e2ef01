package extract

import (
	"fmt"
	"strings"
)

// Style is the host-language grammar used to find enclosing functions.
type Style int

const (
	// StyleNone never finds a function; every query is Global.
	StyleNone Style = iota
	// StyleJava matches brace-delimited methods with modifiers, annotations
	// and an optional block comment.
	StyleJava
	// StyleJavaScript matches function declarations, function expressions
	// and arrow functions with an optional block comment.
	StyleJavaScript
	// StylePython matches def statements with an optional docstring.
	StylePython
)

var styleNames = map[Style]string{
	StyleNone:       "none",
	StyleJava:       "java",
	StyleJavaScript: "javascript",
	StylePython:     "python",
}

func (s Style) String() string {
	if n, ok := styleNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle maps a style name ("java", "javascript", "python", "none") to a Style.
func ParseStyle(name string) (Style, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for s, n := range styleNames {
		if n == want {
			return s, nil
		}
	}
	switch want {
	case "js", "typescript", "ts":
		return StyleJavaScript, nil
	case "py":
		return StylePython, nil
	case "sql", "":
		return StyleNone, nil
	}
	return StyleNone, fmt.Errorf("unknown host style %q", name)
}

// StyleForExt returns the default style for a file extension.
// Unsupported extensions (including .sql) get StyleNone.
func StyleForExt(ext string) Style {
	switch strings.ToLower(ext) {
	case ".java":
		return StyleJava
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return StyleJavaScript
	case ".py":
		return StylePython
	default:
		return StyleNone
	}
}

// Resolver returns the function-context resolver for the style.
func (s Style) Resolver() Resolver {
	switch s {
	case StyleJava:
		return javaResolver
	case StyleJavaScript:
		return javaScriptResolver
	case StylePython:
		return pythonResolver
	default:
		return globalResolver{}
	}
}
