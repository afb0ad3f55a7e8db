package dialect

import (
	"strings"
)

// QuoteTable quotes a possibly schema-qualified table name part by part.
func QuoteTable(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// HasSystemPrefix reports whether name starts with one of the dialect's system table prefixes.
func HasSystemPrefix(d Dialect, name string) bool {
	for _, p := range d.SystemTablePrefixes() {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func quoteWith(open, close, name string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}
