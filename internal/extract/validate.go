package extract

import "strings"

var queryKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP",
	"FROM", "WHERE", "JOIN", "INTO", "VALUES",
}

// IsQuery reports whether cleaned text looks like a query: it must contain
// at least one query keyword, in any case. Grammar is not checked.
func IsQuery(cleaned string) bool {
	upper := strings.ToUpper(cleaned)
	for _, kw := range queryKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
