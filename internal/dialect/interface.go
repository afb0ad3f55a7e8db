package dialect

// Type is the logical database type a caller asks for.
type Type string

const (
	MySQL     Type = "mysql"
	Postgres  Type = "postgres"
	SQLServer Type = "sqlserver"
	Custom    Type = "custom"

	// Oracle is never requested directly. It is only inferred from custom connection strings.
	Oracle Type = "oracle"
)

// BuiltIn lists the dialects that own a cached connection slot.
var BuiltIn = []Type{MySQL, Postgres, SQLServer}

// DDLMode says how CREATE/DROP DATABASE must be issued.
type DDLMode int

const (
	// DDLTransactional runs database DDL inside a regular transaction that is committed.
	DDLTransactional DDLMode = iota
	// DDLAutocommit runs database DDL outside of any transaction block.
	DDLAutocommit
	// DDLUnsupported means the dialect has no database lifecycle support.
	DDLUnsupported
)

// ObjectKind names a schema object whose textual definition can be looked up.
type ObjectKind string

const (
	KindView      ObjectKind = "VIEW"
	KindProcedure ObjectKind = "PROCEDURE"
	KindFunction  ObjectKind = "FUNCTION"
	KindTrigger   ObjectKind = "TRIGGER"
)

// Statement is a SQL statement with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// DumpTool describes an external dump utility.
type DumpTool struct {
	Binary      string
	PasswordEnv string
	NoTables    bool // can dump routines and triggers without table definitions or data
}

// DumpRequest carries what a dump tool invocation needs besides the password.
type DumpRequest struct {
	Host       string
	Port       int
	User       string
	Database   string
	SchemaOnly bool
	Objects    []string // tables and views to restrict to, empty means all
	NoTables   bool     // leave out every table definition and row
	Routines   bool
	Triggers   bool
}

// Dialect abstracts database-specific behavior.
type Dialect interface {
	Type() Type
	DriverName() string

	// Identifiers and parameters
	QuoteIdentifier(name string) string
	Placeholder(index int) string // Returns ?, $1, @p1, :1

	// Catalog queries (Schema Introspection). Per-table queries take the table name as their only argument.
	DatabasesQuery() string
	TablesQuery() string
	ViewsQuery() string
	ColumnsQuery() string
	PrimaryKeyQuery() string
	ForeignKeysQuery() string
	IndexesQuery() string
	ProceduresQuery() string
	FunctionsQuery() string
	TriggersQuery() string
	DefinitionQuery(kind ObjectKind) string // "" when definitions are not readable through SQL
	SystemDatabases() []string
	SystemTablePrefixes() []string

	// Database lifecycle
	DDLMode() DDLMode
	CreateDatabase(name string) []Statement
	DropDatabase(name string) []Statement

	// Export
	DumpTool() *DumpTool
	DumpArgs(req DumpRequest) []string
	Synthesizes() bool
	IdentityInsert(table string, on bool) string

	// Diagnostics
	IsPermissionDenied(err error) bool
}
