package dialect_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"db-hub/internal/dberr"
	"db-hub/internal/dialect"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGet(t *testing.T, typ dialect.Type) dialect.Dialect {
	t.Helper()
	d, err := dialect.Get(typ)
	require.NoError(t, err)
	return d
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		typ  dialect.Type
		in   string
		want string
	}{
		{dialect.MySQL, "users", "`users`"},
		{dialect.MySQL, "we`ird", "`we``ird`"},
		{dialect.Postgres, "users", `"users"`},
		{dialect.Postgres, `we"ird`, `"we""ird"`},
		{dialect.SQLServer, "users", "[users]"},
		{dialect.SQLServer, "we]ird", "[we]]ird]"},
		{dialect.Oracle, "USERS", `"USERS"`},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.typ, tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, mustGet(t, tt.typ).QuoteIdentifier(tt.in))
		})
	}
}

func TestQuoteTable_SchemaQualified(t *testing.T) {
	assert.Equal(t, "[dbo].[orders]", dialect.QuoteTable(mustGet(t, dialect.SQLServer), "dbo.orders"))
	assert.Equal(t, `"orders"`, dialect.QuoteTable(mustGet(t, dialect.Postgres), "orders"))
}

func TestInfer(t *testing.T) {
	tests := []struct {
		raw  string
		want dialect.Type
	}{
		{"mysql://root:pw@localhost:3306/app", dialect.MySQL},
		{"MYSQL+pymysql://root@db/app", dialect.MySQL},
		{"postgresql+psycopg2://u:p@h:5432/db", dialect.Postgres},
		{"postgres://u@h/db?sslmode=disable", dialect.Postgres},
		{"sqlserver://sa:pw@h:1433?database=x", dialect.SQLServer},
		{"mssql+pyodbc://sa:pw@h:1433/x", dialect.SQLServer},
		{"oracle://scott:tiger@h:1521/XE", dialect.Oracle},
		// The scheme wins over engine names inside the database or params.
		{"postgresql://u:p@h:5432/mysql_mirror", dialect.Postgres},
		{"sqlserver://sa:pw@h:1433?database=postgres_import", dialect.SQLServer},
		{"app:pw@tcp(h:3306)/postgres_copy", dialect.MySQL},
		// No known scheme falls back to the keyword scan.
		{"jdbc:oracle:thin:@h:1521:XE", dialect.Oracle},
	}

	for _, tt := range tests {
		got, err := dialect.Infer(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestInfer_NoKeywordIsConfigurationError(t *testing.T) {
	_, err := dialect.Infer("sqlite:///tmp/x.db")

	var ide *dberr.InvalidDialectError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, "custom", ide.Dialect)
}

func TestResolve(t *testing.T) {
	d, err := dialect.Resolve(dialect.Custom, "postgres://u@h/db")
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, d.Type())

	d, err = dialect.Resolve(dialect.Custom, "postgresql://u@h/mysql_mirror")
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, d.Type())

	// A built-in type keeps its own dialect even when an override is given.
	d, err = dialect.Resolve(dialect.MySQL, "postgres://u@h/db")
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, d.Type())

	_, err = dialect.Resolve(dialect.Custom, "")
	var ve *dberr.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = dialect.Get("db2")
	var ide *dberr.InvalidDialectError
	require.ErrorAs(t, err, &ide)
}

func TestParse(t *testing.T) {
	for tag, want := range map[string]dialect.Type{
		"mysql": dialect.MySQL, "PostgreSQL": dialect.Postgres, "mssql": dialect.SQLServer,
		"sqlserver": dialect.SQLServer, "custom": dialect.Custom,
	} {
		got, err := dialect.Parse(tag)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := dialect.Parse("oracle")
	assert.Error(t, err)
}

func TestDDLModes(t *testing.T) {
	assert.Equal(t, dialect.DDLTransactional, mustGet(t, dialect.MySQL).DDLMode())
	assert.Equal(t, dialect.DDLAutocommit, mustGet(t, dialect.Postgres).DDLMode())
	assert.Equal(t, dialect.DDLAutocommit, mustGet(t, dialect.SQLServer).DDLMode())
	assert.Equal(t, dialect.DDLUnsupported, mustGet(t, dialect.Oracle).DDLMode())
}

func TestDropDatabase_TerminatesSessions(t *testing.T) {
	pg := mustGet(t, dialect.Postgres).DropDatabase("shop")
	require.Len(t, pg, 2)
	assert.Contains(t, pg[0].SQL, "pg_terminate_backend")
	assert.Equal(t, []any{"shop"}, pg[0].Args)
	assert.NotContains(t, pg[0].SQL, "shop")
	assert.Equal(t, `DROP DATABASE "shop"`, pg[1].SQL)

	ms := mustGet(t, dialect.SQLServer).DropDatabase("shop")
	require.Len(t, ms, 2)
	assert.Equal(t, "ALTER DATABASE [shop] SET SINGLE_USER WITH ROLLBACK IMMEDIATE", ms[0].SQL)
	assert.Equal(t, "DROP DATABASE [shop]", ms[1].SQL)

	my := mustGet(t, dialect.MySQL).DropDatabase("shop")
	require.Len(t, my, 1)
	assert.Equal(t, "DROP DATABASE `shop`", my[0].SQL)
}

func TestDumpArgs(t *testing.T) {
	req := dialect.DumpRequest{
		Host: "db", Port: 3306, User: "app", Database: "shop",
		SchemaOnly: true, Objects: []string{"orders", "customers"},
	}

	my := mustGet(t, dialect.MySQL)
	require.NotNil(t, my.DumpTool())
	assert.Equal(t, "MYSQL_PWD", my.DumpTool().PasswordEnv)
	assert.Equal(t, []string{
		"--host=db", "--port=3306", "--user=app", "--single-transaction",
		"--no-data", "--skip-triggers", "shop", "orders", "customers",
	}, my.DumpArgs(req))

	req.Port = 5432
	pg := mustGet(t, dialect.Postgres)
	assert.Equal(t, "PGPASSWORD", pg.DumpTool().PasswordEnv)
	args := pg.DumpArgs(req)
	assert.Contains(t, args, "--schema-only")
	assert.Contains(t, args, `--table="orders"`)
	args = pg.DumpArgs(dialect.DumpRequest{Host: "db", Port: 5432, User: "app", Database: "shop", Objects: []string{"public.orders"}})
	assert.Contains(t, args, `--table="public"."orders"`)
	assert.Equal(t, "shop", args[len(args)-1])

	ms := mustGet(t, dialect.SQLServer)
	assert.Nil(t, ms.DumpTool())
	assert.True(t, ms.Synthesizes())
}

func TestDumpArgs_RoutinesAndTriggers(t *testing.T) {
	args := mustGet(t, dialect.MySQL).DumpArgs(dialect.DumpRequest{
		Host: "db", Port: 3306, User: "app", Database: "shop", Routines: true, Triggers: true,
	})
	assert.Contains(t, args, "--routines")
	assert.NotContains(t, args, "--skip-triggers")
	assert.NotContains(t, args, "--no-data")
	for _, a := range args {
		assert.False(t, strings.Contains(strings.ToLower(a), "password"), a)
	}
}

func TestIdentityInsert(t *testing.T) {
	ms := mustGet(t, dialect.SQLServer)
	assert.Equal(t, "SET IDENTITY_INSERT [orders] ON;", ms.IdentityInsert("orders", true))
	assert.Equal(t, "SET IDENTITY_INSERT [orders] OFF;", ms.IdentityInsert("orders", false))
	assert.Empty(t, mustGet(t, dialect.MySQL).IdentityInsert("orders", true))
}

func TestIsPermissionDenied(t *testing.T) {
	my := mustGet(t, dialect.MySQL)
	assert.True(t, my.IsPermissionDenied(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1044, Message: "Access denied"})))
	assert.False(t, my.IsPermissionDenied(&mysql.MySQLError{Number: 1064, Message: "syntax"}))

	pg := mustGet(t, dialect.Postgres)
	assert.True(t, pg.IsPermissionDenied(&pq.Error{Code: "42501", Message: "permission denied for table t"}))
	assert.False(t, pg.IsPermissionDenied(&pq.Error{Code: "42P01"}))

	ms := mustGet(t, dialect.SQLServer)
	assert.True(t, ms.IsPermissionDenied(mssql.Error{Number: 229, Message: "The SELECT permission was denied"}))
	assert.False(t, ms.IsPermissionDenied(errors.New("boom")))
}

func TestSystemCatalogs(t *testing.T) {
	assert.Contains(t, mustGet(t, dialect.MySQL).SystemDatabases(), "performance_schema")
	assert.Equal(t, []string{"postgres"}, mustGet(t, dialect.Postgres).SystemDatabases())

	ms := mustGet(t, dialect.SQLServer)
	assert.True(t, dialect.HasSystemPrefix(ms, "spt_values"))
	assert.True(t, dialect.HasSystemPrefix(ms, "sysdiagrams"))
	assert.False(t, dialect.HasSystemPrefix(ms, "orders"))
}

func TestDumpArgs_NoTables(t *testing.T) {
	my := mustGet(t, dialect.MySQL)
	assert.True(t, my.DumpTool().NoTables)
	args := my.DumpArgs(dialect.DumpRequest{
		Host: "db", Port: 3306, User: "app", Database: "shop", SchemaOnly: true, NoTables: true, Routines: true,
	})
	assert.Equal(t, []string{
		"--host=db", "--port=3306", "--user=app", "--single-transaction",
		"--no-create-info", "--no-data", "--routines", "--skip-triggers", "shop",
	}, args)

	assert.False(t, mustGet(t, dialect.Postgres).DumpTool().NoTables)
}
