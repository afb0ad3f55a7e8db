package dialect

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Type() Type         { return MySQL }
func (d *MysqlDialect) DriverName() string { return "mysql" }

func (d *MysqlDialect) QuoteIdentifier(name string) string {
	return quoteWith("`", "`", name)
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) DatabasesQuery() string {
	return `SHOW DATABASES`
}

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) ViewsQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'VIEW' ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) ColumnsQuery() string {
	return `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, IF(EXTRA LIKE '%auto_increment%', 'YES', 'NO') FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) PrimaryKeyQuery() string {
	return `SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY' ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) ForeignKeysQuery() string {
	return `SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`
}

func (d *MysqlDialect) IndexesQuery() string {
	return `SELECT INDEX_NAME, COLUMN_NAME, IF(NON_UNIQUE = 0, 'YES', 'NO') FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY INDEX_NAME, SEQ_IN_INDEX`
}

func (d *MysqlDialect) ProceduresQuery() string {
	return `SELECT ROUTINE_NAME, '' FROM information_schema.ROUTINES WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_TYPE = 'PROCEDURE' ORDER BY ROUTINE_NAME`
}

func (d *MysqlDialect) FunctionsQuery() string {
	// Extra carries the declared return type.
	return `SELECT ROUTINE_NAME, DTD_IDENTIFIER FROM information_schema.ROUTINES WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_TYPE = 'FUNCTION' ORDER BY ROUTINE_NAME`
}

func (d *MysqlDialect) TriggersQuery() string {
	return `SELECT TRIGGER_NAME, EVENT_OBJECT_TABLE, EVENT_MANIPULATION FROM information_schema.TRIGGERS WHERE TRIGGER_SCHEMA = DATABASE() ORDER BY TRIGGER_NAME`
}

func (d *MysqlDialect) DefinitionQuery(kind ObjectKind) string {
	switch kind {
	case KindView:
		return `SELECT VIEW_DEFINITION FROM information_schema.VIEWS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`
	case KindProcedure, KindFunction:
		return `SELECT ROUTINE_DEFINITION FROM information_schema.ROUTINES WHERE ROUTINE_SCHEMA = DATABASE() AND ROUTINE_NAME = ?`
	case KindTrigger:
		return `SELECT ACTION_STATEMENT FROM information_schema.TRIGGERS WHERE TRIGGER_SCHEMA = DATABASE() AND TRIGGER_NAME = ?`
	}
	return ""
}

func (d *MysqlDialect) SystemDatabases() []string {
	return []string{"information_schema", "mysql", "performance_schema", "sys"}
}

func (d *MysqlDialect) SystemTablePrefixes() []string {
	return nil
}

// MySQL commits CREATE/DROP DATABASE implicitly, a regular transaction is fine.
func (d *MysqlDialect) DDLMode() DDLMode {
	return DDLTransactional
}

func (d *MysqlDialect) CreateDatabase(name string) []Statement {
	return []Statement{{SQL: fmt.Sprintf("CREATE DATABASE %s", d.QuoteIdentifier(name))}}
}

func (d *MysqlDialect) DropDatabase(name string) []Statement {
	return []Statement{{SQL: fmt.Sprintf("DROP DATABASE %s", d.QuoteIdentifier(name))}}
}

func (d *MysqlDialect) DumpTool() *DumpTool {
	return &DumpTool{Binary: "mysqldump", PasswordEnv: "MYSQL_PWD", NoTables: true}
}

// DumpArgs never contains the password, mysqldump reads it from MYSQL_PWD.
func (d *MysqlDialect) DumpArgs(req DumpRequest) []string {
	args := []string{
		"--host=" + req.Host,
		"--port=" + strconv.Itoa(req.Port),
		"--user=" + req.User,
		"--single-transaction",
	}
	if req.NoTables {
		args = append(args, "--no-create-info", "--no-data")
	} else if req.SchemaOnly {
		args = append(args, "--no-data")
	}
	if req.Routines {
		args = append(args, "--routines")
	}
	if !req.Triggers {
		args = append(args, "--skip-triggers")
	}
	args = append(args, req.Database)
	return append(args, req.Objects...)
}

func (d *MysqlDialect) Synthesizes() bool {
	return false
}

func (d *MysqlDialect) IdentityInsert(table string, on bool) string {
	return ""
}

var mysqlPermissionCodes = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1142: true, // ER_TABLEACCESS_DENIED_ERROR
	1143: true, // ER_COLUMNACCESS_DENIED_ERROR
	1227: true, // ER_SPECIFIC_ACCESS_DENIED_ERROR
	1370: true, // ER_PROCACCESS_DENIED_ERROR
}

func (d *MysqlDialect) IsPermissionDenied(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return mysqlPermissionCodes[me.Number]
	}
	return false
}
