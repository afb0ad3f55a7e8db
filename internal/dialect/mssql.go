package dialect

import (
	"errors"
	"fmt"

	mssql "github.com/denisenkom/go-mssqldb" // SQL Server Driver
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?

func (d *MSSQLDialect) Type() Type         { return SQLServer }
func (d *MSSQLDialect) DriverName() string { return "sqlserver" }

func (d *MSSQLDialect) QuoteIdentifier(name string) string {
	return quoteWith("[", "]", name)
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) DatabasesQuery() string {
	return `SELECT name FROM sys.databases ORDER BY name`
}

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MSSQLDialect) ViewsQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = SCHEMA_NAME() ORDER BY TABLE_NAME`
}

func (d *MSSQLDialect) ColumnsQuery() string {
	// Declared type is rebuilt with its length/precision so it can be replayed in CREATE TABLE.
	return `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE + CASE
				WHEN c.DATA_TYPE IN ('text', 'ntext', 'image', 'xml') THEN ''
				WHEN c.CHARACTER_MAXIMUM_LENGTH = -1 THEN '(max)'
				WHEN c.CHARACTER_MAXIMUM_LENGTH IS NOT NULL THEN '(' + CAST(c.CHARACTER_MAXIMUM_LENGTH AS VARCHAR(10)) + ')'
				WHEN c.DATA_TYPE IN ('decimal', 'numeric') THEN '(' + CAST(c.NUMERIC_PRECISION AS VARCHAR(10)) + ',' + CAST(c.NUMERIC_SCALE AS VARCHAR(10)) + ')'
				ELSE ''
			END,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			CASE WHEN COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsIdentity') = 1 THEN 'YES' ELSE 'NO' END
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = SCHEMA_NAME() AND c.TABLE_NAME = @p1
		ORDER BY c.ORDINAL_POSITION
	`
}

func (d *MSSQLDialect) PrimaryKeyQuery() string {
	return `SELECT kcu.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = SCHEMA_NAME() AND tc.TABLE_NAME = @p1 ORDER BY kcu.ORDINAL_POSITION`
}

func (d *MSSQLDialect) ForeignKeysQuery() string {
	return `
		SELECT fk.name, pc.name, rt.name, rc.name
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.tables pt ON pt.object_id = fk.parent_object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE pt.name = @p1 AND pt.schema_id = SCHEMA_ID()
		ORDER BY fk.name, fkc.constraint_column_id
	`
}

func (d *MSSQLDialect) IndexesQuery() string {
	return `
		SELECT i.name, col.name, CASE WHEN i.is_unique = 1 THEN 'YES' ELSE 'NO' END
		FROM sys.indexes i
		JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns col ON ic.object_id = col.object_id AND ic.column_id = col.column_id
		JOIN sys.tables t ON i.object_id = t.object_id
		WHERE t.name = @p1 AND t.schema_id = SCHEMA_ID() AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal
	`
}

func (d *MSSQLDialect) ProceduresQuery() string {
	return `SELECT name, type_desc FROM sys.procedures WHERE type = 'P' ORDER BY name`
}

func (d *MSSQLDialect) FunctionsQuery() string {
	return `SELECT name, type_desc FROM sys.objects WHERE type IN ('FN', 'IF', 'TF') ORDER BY name`
}

func (d *MSSQLDialect) TriggersQuery() string {
	return `
		SELECT
			t.name,
			OBJECT_NAME(t.parent_id),
			ISNULL(STUFF((SELECT ' OR ' + te.type_desc FROM sys.trigger_events te WHERE te.object_id = t.object_id FOR XML PATH('')), 1, 4, ''), '')
		FROM sys.triggers t
		WHERE t.parent_class = 1
		ORDER BY t.name
	`
}

func (d *MSSQLDialect) DefinitionQuery(kind ObjectKind) string {
	return `SELECT OBJECT_DEFINITION(OBJECT_ID(@p1))`
}

func (d *MSSQLDialect) SystemDatabases() []string {
	return []string{"master", "tempdb", "model", "msdb"}
}

func (d *MSSQLDialect) SystemTablePrefixes() []string {
	return []string{"MSreplication_", "spt_", "sys", "sqlagent_"}
}

// CREATE/DROP DATABASE is not allowed within a multi-statement transaction.
func (d *MSSQLDialect) DDLMode() DDLMode {
	return DDLAutocommit
}

func (d *MSSQLDialect) CreateDatabase(name string) []Statement {
	return []Statement{{SQL: fmt.Sprintf("CREATE DATABASE %s", d.QuoteIdentifier(name))}}
}

// DropDatabase kicks every other session out before dropping.
func (d *MSSQLDialect) DropDatabase(name string) []Statement {
	q := d.QuoteIdentifier(name)
	return []Statement{
		{SQL: fmt.Sprintf("ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE", q)},
		{SQL: fmt.Sprintf("DROP DATABASE %s", q)},
	}
}

// SQL Server has no dump utility we can rely on, the export is synthesized.
func (d *MSSQLDialect) DumpTool() *DumpTool {
	return nil
}

func (d *MSSQLDialect) DumpArgs(req DumpRequest) []string {
	return nil
}

func (d *MSSQLDialect) Synthesizes() bool {
	return true
}

func (d *MSSQLDialect) IdentityInsert(table string, on bool) string {
	state := "OFF"
	if on {
		state = "ON"
	}
	return fmt.Sprintf("SET IDENTITY_INSERT %s %s;", QuoteTable(d, table), state)
}

var mssqlPermissionNumbers = map[int32]bool{
	229:   true, // permission denied on object
	230:   true, // permission denied on column
	262:   true, // permission denied in database
	297:   true, // user does not have permission
	300:   true, // VIEW SERVER STATE permission denied
	916:   true, // principal cannot access database
	15247: true, // user does not have permission to perform this action
}

func (d *MSSQLDialect) IsPermissionDenied(err error) bool {
	var me mssql.Error
	if errors.As(err, &me) {
		return mssqlPermissionNumbers[me.Number]
	}
	return false
}
