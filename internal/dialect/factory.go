package dialect

import (
	"strings"

	"db-hub/internal/dberr"
)

// Get returns the Dialect implementation for a concrete type.
func Get(t Type) (Dialect, error) {
	switch t {
	case MySQL:
		return &MysqlDialect{}, nil
	case Postgres:
		return &PostgresDialect{}, nil
	case SQLServer:
		return &MSSQLDialect{}, nil
	case Oracle:
		return &OracleDialect{}, nil
	case Custom:
		return nil, &dberr.InvalidDialectError{Dialect: string(t), Reason: "custom connections need a connection string"}
	default:
		return nil, &dberr.InvalidDialectError{Dialect: string(t)}
	}
}

// Parse maps a user supplied tag onto a Type. "postgresql" and "mssql" are accepted as aliases.
func Parse(tag string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "custom":
		return Custom, nil
	default:
		return "", &dberr.InvalidDialectError{Dialect: tag}
	}
}

// schemes maps accepted URL schemes onto dialects.
var schemes = map[string]Type{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"oracle":     Oracle,
}

// FromScheme maps a URL scheme onto a dialect. SQLAlchemy style "+driver" suffixes are ignored.
func FromScheme(scheme string) (Type, bool) {
	scheme = strings.ToLower(scheme)
	if i := strings.Index(scheme, "+"); i >= 0 {
		scheme = scheme[:i]
	}
	t, ok := schemes[scheme]
	return t, ok
}

// keywords are checked in order, the first match wins.
var keywords = []struct {
	needle string
	t      Type
}{
	{"mysql", MySQL},
	{"postgres", Postgres},
	{"sqlserver", SQLServer},
	{"mssql", SQLServer},
	{"oracle", Oracle},
}

// Infer determines the engine behind a raw connection string. A known URL scheme or a native
// MySQL DSN decides on its own, other strings are matched by driver keyword. A string without
// any known keyword is a configuration error.
func Infer(raw string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i > 0 {
		if t, ok := FromScheme(s[:i]); ok {
			return t, nil
		}
	}
	if strings.Contains(s, "@tcp(") || strings.Contains(s, "@unix(") {
		return MySQL, nil
	}

	for _, k := range keywords {
		if strings.Contains(s, k.needle) {
			return k.t, nil
		}
	}
	return "", &dberr.InvalidDialectError{
		Dialect: string(Custom),
		Reason:  "cannot infer database type from connection string (expected mysql, postgres, sqlserver/mssql or oracle)",
	}
}

// Resolve returns the dialect to use for a type, inferring it from raw when needed.
// A built-in type with an override string keeps its own dialect.
func Resolve(t Type, raw string) (Dialect, error) {
	if t == Custom {
		if raw == "" {
			return nil, &dberr.ValidationError{Field: "connection_string", Reason: "required for custom connections"}
		}
		inferred, err := Infer(raw)
		if err != nil {
			return nil, err
		}
		return Get(inferred)
	}
	return Get(t)
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
