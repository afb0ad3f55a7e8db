package engine

import (
	"regexp"
	"strings"
	"unicode"
)

// Statements starting with one of these keywords produce a result set.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"VALUES":   true,
	"TABLE":    true,
	"PRAGMA":   true,
	"EXEC":     true,
	"EXECUTE":  true,
	"CALL":     true,
	// T-SQL batches that set up variables or options before their SELECT.
	"DECLARE": true,
	"SET":     true,
}

// DML that hands rows back: PostgreSQL/SQLite RETURNING and SQL Server OUTPUT.
var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b|\bOUTPUT\s+(INSERTED|DELETED)\b`)

// ReturnsRows decides whether a statement must be run as a query. database/sql cannot tell
// up front, so the leading keyword (after comments and parentheses) is inspected. A WITH
// query is judged by the verb after its CTE list.
func ReturnsRows(query string) bool {
	kw := leadingKeyword(query)
	if kw == "WITH" {
		kw = mainVerb(query)
	}
	if rowKeywords[kw] {
		return true
	}
	switch kw {
	case "INSERT", "UPDATE", "DELETE", "MERGE", "REPLACE":
		return returningClause.MatchString(query)
	}
	return false
}

func leadingKeyword(query string) string {
	s := skipNoise(query)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

// Verbs that can follow a CTE list.
var cteVerbs = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"MERGE": true, "VALUES": true, "TABLE": true, "REPLACE": true,
}

// mainVerb returns the statement verb that follows the CTE list of a WITH query, the first
// verb outside of any parentheses, string literal or comment.
func mainVerb(query string) string {
	s := skipNoise(query)
	depth := 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			j := strings.IndexByte(s[i+1:], closer)
			if j < 0 {
				return ""
			}
			i += j + 2
		case strings.HasPrefix(s[i:], "--"):
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				return ""
			}
			i += j + 1
		case strings.HasPrefix(s[i:], "/*"):
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				return ""
			}
			i += j + 4
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			if word := strings.ToUpper(s[i:j]); depth == 0 && cteVerbs[word] {
				return word
			}
			i = j
		default:
			i++
		}
	}
	return ""
}

func isWordByte(c byte) bool {
	return c == '_' || c == '@' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// skipNoise drops leading whitespace, comments and opening parentheses.
func skipNoise(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			s = s[i+4:]
		case strings.HasPrefix(s, "("):
			s = s[1:]
		default:
			return s
		}
	}
}
