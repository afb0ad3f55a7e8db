package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sijms/go-ora/v2/network"
)

// OracleDialect backs custom connection strings pointing at Oracle. It supports query
// execution and introspection only: there is no database lifecycle and no export.
type OracleDialect struct{}

func (d *OracleDialect) Type() Type         { return Oracle }
func (d *OracleDialect) DriverName() string { return "oracle" }

func (d *OracleDialect) QuoteIdentifier(name string) string {
	return quoteWith(`"`, `"`, name)
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) DatabasesQuery() string {
	// Oracle has no databases in the MySQL sense, schemas (users) are listed instead.
	return `SELECT USERNAME FROM ALL_USERS ORDER BY USERNAME`
}

func (d *OracleDialect) TablesQuery() string {
	// USER_TABLES lists tables owned by the current user.
	return `SELECT TABLE_NAME FROM USER_TABLES ORDER BY TABLE_NAME`
}

func (d *OracleDialect) ViewsQuery() string {
	return `SELECT VIEW_NAME FROM USER_VIEWS ORDER BY VIEW_NAME`
}

func (d *OracleDialect) ColumnsQuery() string {
	return `
SELECT
    t.COLUMN_NAME,
    t.DATA_TYPE || CASE WHEN t.DATA_TYPE IN ('VARCHAR2', 'NVARCHAR2', 'CHAR', 'NCHAR', 'RAW') THEN '(' || t.CHAR_LENGTH || ')' ELSE '' END,
    CASE WHEN t.NULLABLE = 'Y' THEN 'YES' ELSE 'NO' END,
    t.DATA_DEFAULT,
    t.IDENTITY_COLUMN
FROM USER_TAB_COLUMNS t
WHERE t.TABLE_NAME = :1
ORDER BY t.COLUMN_ID`
}

func (d *OracleDialect) PrimaryKeyQuery() string {
	return `
SELECT cc.COLUMN_NAME
FROM USER_CONS_COLUMNS cc
JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
WHERE uc.CONSTRAINT_TYPE = 'P' AND uc.TABLE_NAME = :1
ORDER BY cc.POSITION`
}

func (d *OracleDialect) ForeignKeysQuery() string {
	return `
SELECT
    c.CONSTRAINT_NAME,
    cc.COLUMN_NAME,
    r.TABLE_NAME AS REF_TABLE,
    rcc.COLUMN_NAME AS REF_COLUMN
FROM USER_CONSTRAINTS c
JOIN USER_CONS_COLUMNS cc
    ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
    AND c.OWNER = cc.OWNER
JOIN USER_CONSTRAINTS r
    ON c.R_CONSTRAINT_NAME = r.CONSTRAINT_NAME
    AND c.R_OWNER = r.OWNER
JOIN USER_CONS_COLUMNS rcc
    ON r.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME
    AND r.OWNER = rcc.OWNER
    AND cc.POSITION = rcc.POSITION
WHERE c.CONSTRAINT_TYPE = 'R'
AND c.TABLE_NAME = :1
ORDER BY c.CONSTRAINT_NAME, cc.POSITION`
}

func (d *OracleDialect) IndexesQuery() string {
	return `
SELECT ic.INDEX_NAME, ic.COLUMN_NAME, CASE WHEN i.UNIQUENESS = 'UNIQUE' THEN 'YES' ELSE 'NO' END
FROM USER_IND_COLUMNS ic
JOIN USER_INDEXES i ON i.INDEX_NAME = ic.INDEX_NAME
WHERE ic.TABLE_NAME = :1
ORDER BY ic.INDEX_NAME, ic.COLUMN_POSITION`
}

func (d *OracleDialect) ProceduresQuery() string {
	return `SELECT OBJECT_NAME, STATUS FROM USER_OBJECTS WHERE OBJECT_TYPE = 'PROCEDURE' ORDER BY OBJECT_NAME`
}

func (d *OracleDialect) FunctionsQuery() string {
	return `SELECT OBJECT_NAME, STATUS FROM USER_OBJECTS WHERE OBJECT_TYPE = 'FUNCTION' ORDER BY OBJECT_NAME`
}

func (d *OracleDialect) TriggersQuery() string {
	return `SELECT TRIGGER_NAME, TABLE_NAME, TRIGGERING_EVENT FROM USER_TRIGGERS ORDER BY TRIGGER_NAME`
}

func (d *OracleDialect) DefinitionQuery(kind ObjectKind) string {
	switch kind {
	case KindView:
		return `SELECT TEXT FROM USER_VIEWS WHERE VIEW_NAME = :1`
	case KindTrigger:
		return `SELECT TRIGGER_BODY FROM USER_TRIGGERS WHERE TRIGGER_NAME = :1`
	}
	return ""
}

func (d *OracleDialect) SystemDatabases() []string {
	return []string{"SYS", "SYSTEM", "OUTLN", "DBSNMP", "XDB", "APPQOSSYS", "AUDSYS", "GSMADMIN_INTERNAL", "ORACLE_OCM", "WMSYS"}
}

func (d *OracleDialect) SystemTablePrefixes() []string {
	return []string{"BIN$", "SYS_"}
}

func (d *OracleDialect) DDLMode() DDLMode {
	return DDLUnsupported
}

func (d *OracleDialect) CreateDatabase(name string) []Statement {
	return nil
}

func (d *OracleDialect) DropDatabase(name string) []Statement {
	return nil
}

func (d *OracleDialect) DumpTool() *DumpTool {
	return nil
}

func (d *OracleDialect) DumpArgs(req DumpRequest) []string {
	return nil
}

func (d *OracleDialect) Synthesizes() bool {
	return false
}

func (d *OracleDialect) IdentityInsert(table string, on bool) string {
	return ""
}

func (d *OracleDialect) IsPermissionDenied(err error) bool {
	var oe *network.OracleError
	if errors.As(err, &oe) {
		// ORA-01031 insufficient privileges, ORA-01017 invalid credentials, ORA-00942 no access
		switch oe.ErrCode {
		case 1031, 1017, 942:
			return true
		}
	}
	return strings.Contains(err.Error(), "ORA-01031")
}
