package format

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownDialect is returned for a dialect name Format does not support.
var ErrUnknownDialect = errors.New("unknown SQL dialect")

const (
	DefaultLanguage            = "sql"
	DefaultTabWidth            = 2
	DefaultLinesBetweenQueries = 1
)

// dialect holds the lexical rules that differ between SQL flavors.
type dialect struct {
	identQuotes      string // opening characters of quoted identifiers besides '"'
	hashComments     bool   // '#' starts a line comment
	backslashEscapes bool   // '\' escapes inside string literals
	dollarQuotes     bool   // $$...$$ and $tag$...$tag$ strings
}

var mysqlLike = dialect{identQuotes: "`", hashComments: true, backslashEscapes: true}

var dialects = map[string]dialect{
	"sql":           {},
	"bigquery":      {identQuotes: "`", hashComments: true, backslashEscapes: true},
	"db2":           {},
	"hive":          {identQuotes: "`", backslashEscapes: true},
	"mariadb":       mysqlLike,
	"mysql":         mysqlLike,
	"n1ql":          {identQuotes: "`", backslashEscapes: true},
	"plsql":         {},
	"postgresql":    {dollarQuotes: true},
	"redshift":      {},
	"singlestoredb": mysqlLike,
	"snowflake":     {dollarQuotes: true},
	"spark":         {identQuotes: "`", backslashEscapes: true},
	"sqlite":        {identQuotes: "`["},
	"transactsql":   {identQuotes: "["},
	"trino":         {},
}

var aliases = map[string]string{
	"tsql":     "transactsql",
	"postgres": "postgresql",
}

func lookupDialect(name string) (dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultLanguage
	}
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	d, ok := dialects[key]
	if !ok {
		return dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
	return d, nil
}

// Supported reports whether name is a dialect Format accepts.
func Supported(name string) bool {
	_, err := lookupDialect(name)
	return err == nil
}

// Dialects returns the supported dialect names in sorted order.
func Dialects() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
