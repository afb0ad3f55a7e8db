package dialect

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Type() Type         { return Postgres }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) DatabasesQuery() string {
	return `SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`
}

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
}

func (d *PostgresDialect) ViewsQuery() string {
	return `SELECT table_name FROM information_schema.views WHERE table_schema = current_schema() ORDER BY table_name`
}

func (d *PostgresDialect) ColumnsQuery() string {
	// format_type keeps length/precision modifiers, which information_schema.data_type drops.
	return `SELECT
    a.attname,
    pg_catalog.format_type(a.atttypid, a.atttypmod),
    CASE WHEN a.attnotnull THEN 'NO' ELSE 'YES' END,
    pg_catalog.pg_get_expr(ad.adbin, ad.adrelid),
    CASE WHEN a.attidentity <> '' OR pg_catalog.pg_get_expr(ad.adbin, ad.adrelid) LIKE 'nextval(%' THEN 'YES' ELSE 'NO' END
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
WHERE n.nspname = current_schema() AND c.relname = $1 AND a.attnum > 0 AND NOT a.attisdropped
ORDER BY a.attnum`
}

func (d *PostgresDialect) PrimaryKeyQuery() string {
	return `SELECT kcu.column_name FROM information_schema.table_constraints tc JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1 ORDER BY kcu.ordinal_position`
}

func (d *PostgresDialect) ForeignKeysQuery() string {
	return `SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = $1
ORDER BY tc.constraint_name, kcu.ordinal_position`
}

func (d *PostgresDialect) IndexesQuery() string {
	return `SELECT i.relname, a.attname, CASE WHEN ix.indisunique THEN 'YES' ELSE 'NO' END
FROM pg_catalog.pg_index ix
JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname = current_schema() AND t.relname = $1
ORDER BY i.relname, a.attnum`
}

func (d *PostgresDialect) ProceduresQuery() string {
	return `SELECT p.proname, pg_catalog.pg_get_function_identity_arguments(p.oid) FROM pg_catalog.pg_proc p JOIN pg_catalog.pg_namespace n ON p.pronamespace = n.oid WHERE n.nspname = current_schema() AND p.prokind = 'p' ORDER BY p.proname`
}

func (d *PostgresDialect) FunctionsQuery() string {
	return `SELECT p.proname, pg_catalog.pg_get_function_identity_arguments(p.oid) FROM pg_catalog.pg_proc p JOIN pg_catalog.pg_namespace n ON p.pronamespace = n.oid WHERE n.nspname = current_schema() AND p.prokind = 'f' ORDER BY p.proname`
}

func (d *PostgresDialect) TriggersQuery() string {
	return `SELECT trigger_name, event_object_table, string_agg(event_manipulation, ' OR ' ORDER BY event_manipulation) FROM information_schema.triggers WHERE trigger_schema = current_schema() GROUP BY trigger_name, event_object_table ORDER BY trigger_name`
}

func (d *PostgresDialect) DefinitionQuery(kind ObjectKind) string {
	switch kind {
	case KindView:
		return `SELECT pg_catalog.pg_get_viewdef(c.oid, true) FROM pg_catalog.pg_class c JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace WHERE n.nspname = current_schema() AND c.relname = $1`
	case KindProcedure, KindFunction:
		return `SELECT pg_catalog.pg_get_functiondef(p.oid) FROM pg_catalog.pg_proc p JOIN pg_catalog.pg_namespace n ON p.pronamespace = n.oid WHERE n.nspname = current_schema() AND p.proname = $1 LIMIT 1`
	case KindTrigger:
		return `SELECT pg_catalog.pg_get_triggerdef(t.oid, true) FROM pg_catalog.pg_trigger t WHERE t.tgname = $1 AND NOT t.tgisinternal LIMIT 1`
	}
	return ""
}

func (d *PostgresDialect) SystemDatabases() []string {
	return []string{"postgres"}
}

func (d *PostgresDialect) SystemTablePrefixes() []string {
	return []string{"pg_"}
}

// CREATE/DROP DATABASE cannot run inside a transaction block.
func (d *PostgresDialect) DDLMode() DDLMode {
	return DDLAutocommit
}

func (d *PostgresDialect) CreateDatabase(name string) []Statement {
	return []Statement{{SQL: fmt.Sprintf("CREATE DATABASE %s", d.QuoteIdentifier(name))}}
}

// DropDatabase terminates other backends first, PostgreSQL refuses to drop a database in use.
func (d *PostgresDialect) DropDatabase(name string) []Statement {
	return []Statement{
		{
			SQL:  `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`,
			Args: []any{name},
		},
		{SQL: fmt.Sprintf("DROP DATABASE %s", d.QuoteIdentifier(name))},
	}
}

func (d *PostgresDialect) DumpTool() *DumpTool {
	return &DumpTool{Binary: "pg_dump", PasswordEnv: "PGPASSWORD"}
}

func (d *PostgresDialect) DumpArgs(req DumpRequest) []string {
	args := []string{
		"--host=" + req.Host,
		"--port=" + strconv.Itoa(req.Port),
		"--username=" + req.User,
		"--format=p",
		"--no-password",
	}
	if req.SchemaOnly {
		args = append(args, "--schema-only")
	}
	for _, o := range req.Objects {
		args = append(args, "--table="+QuoteTable(d, o))
	}
	return append(args, req.Database)
}

func (d *PostgresDialect) Synthesizes() bool {
	return false
}

func (d *PostgresDialect) IdentityInsert(table string, on bool) string {
	return ""
}

func (d *PostgresDialect) IsPermissionDenied(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) {
		// 42501 insufficient_privilege, 28000/28P01 authorization failures
		switch pe.Code {
		case "42501", "28000", "28P01":
			return true
		}
	}
	return false
}
