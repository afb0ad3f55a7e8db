package schema_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"db-hub/internal/dialect"
	"db-hub/internal/registry"
	"db-hub/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcquirer struct {
	h   *registry.Handle
	err error
}

func (f *fakeAcquirer) Acquire(ctx context.Context, t registry.Target) (*registry.Handle, error) {
	return f.h, f.err
}

func newHandle(t *testing.T, typ dialect.Type) (*registry.Handle, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	d, err := dialect.Get(typ)
	require.NoError(t, err)
	return &registry.Handle{DB: db, Dialect: d}, mock
}

func TestListDatabases_RemovesSystemDatabases(t *testing.T) {
	h, mock := newHandle(t, dialect.MySQL)
	mock.ExpectQuery(h.Dialect.DatabasesQuery()).WillReturnRows(
		sqlmock.NewRows([]string{"Database"}).
			AddRow("information_schema").AddRow("shop").AddRow("mysql").AddRow("analytics").AddRow("sys"),
	)
	mock.ExpectClose()

	insp := schema.NewInspector(&fakeAcquirer{h: h})
	got := insp.ListDatabases(context.Background(), registry.Target{Dialect: dialect.MySQL})

	assert.Equal(t, []string{"shop", "analytics"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspector_FailuresYieldEmptyLists(t *testing.T) {
	h, mock := newHandle(t, dialect.Postgres)
	mock.ExpectQuery(h.Dialect.TablesQuery()).WillReturnError(errors.New(`permission denied for schema public`))
	mock.ExpectClose()

	insp := schema.NewInspector(&fakeAcquirer{h: h})
	tables := insp.ListTables(context.Background(), registry.Target{Dialect: dialect.Postgres})

	require.NotNil(t, tables)
	assert.Empty(t, tables)

	down := schema.NewInspector(&fakeAcquirer{err: errors.New("connection refused")})
	target := registry.Target{Dialect: dialect.Postgres}
	assert.Equal(t, []string{}, down.ListViews(context.Background(), target))
	assert.Equal(t, []*schema.Column{}, down.Columns(context.Background(), target, "orders"))
	assert.Equal(t, []*schema.Trigger{}, down.ListTriggers(context.Background(), target))
	assert.Equal(t, []*schema.Routine{}, down.ListProcedures(context.Background(), target))
}

func TestColumns(t *testing.T) {
	h, mock := newHandle(t, dialect.SQLServer)
	def := "(getdate())"
	mock.ExpectQuery(h.Dialect.ColumnsQuery()).WithArgs("orders").WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "nullable", "default", "identity"}).
			AddRow("id", "int", "NO", nil, "YES").
			AddRow("note", "nvarchar(max)", "YES", nil, "NO").
			AddRow("created_at", "datetime2", "NO", def, "NO"),
	)

	cols, err := schema.Columns(context.Background(), h, "orders")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, &schema.Column{Name: "id", DeclaredType: "int", Identity: true}, cols[0])
	assert.True(t, cols[1].Nullable)
	assert.Nil(t, cols[1].Default)
	require.NotNil(t, cols[2].Default)
	assert.Equal(t, def, *cols[2].Default)
}

func TestIndexes_GroupsColumns(t *testing.T) {
	h, mock := newHandle(t, dialect.MySQL)
	mock.ExpectQuery(h.Dialect.IndexesQuery()).WithArgs("order_items").WillReturnRows(
		sqlmock.NewRows([]string{"index", "column", "unique"}).
			AddRow("PRIMARY", "order_id", "YES").
			AddRow("PRIMARY", "line_no", "YES").
			AddRow("idx_product", "product_id", "NO"),
	)

	idx, err := schema.Indexes(context.Background(), h, "order_items")
	require.NoError(t, err)

	assert.Equal(t, []*schema.Index{
		{Name: "PRIMARY", Columns: []string{"order_id", "line_no"}, Unique: true},
		{Name: "idx_product", Columns: []string{"product_id"}},
	}, idx)
}

func TestRoutinesAndTriggers(t *testing.T) {
	h, mock := newHandle(t, dialect.Postgres)
	mock.ExpectQuery(h.Dialect.FunctionsQuery()).WillReturnRows(
		sqlmock.NewRows([]string{"name", "args"}).AddRow("total_for", "customer integer"),
	)
	mock.ExpectQuery(h.Dialect.ProceduresQuery()).WillReturnRows(
		sqlmock.NewRows([]string{"name", "args"}).AddRow("archive_orders", nil),
	)
	mock.ExpectQuery(h.Dialect.TriggersQuery()).WillReturnRows(
		sqlmock.NewRows([]string{"name", "table", "event"}).AddRow("orders_audit", "orders", "INSERT OR UPDATE"),
	)
	ctx := context.Background()

	fns, err := schema.Routines(ctx, h, dialect.KindFunction)
	require.NoError(t, err)
	assert.Equal(t, []*schema.Routine{{Name: "total_for", Type: "FUNCTION", Extra: "customer integer"}}, fns)

	procs, err := schema.Routines(ctx, h, dialect.KindProcedure)
	require.NoError(t, err)
	assert.Equal(t, []*schema.Routine{{Name: "archive_orders", Type: "PROCEDURE"}}, procs)

	trs, err := schema.Triggers(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, []*schema.Trigger{{Name: "orders_audit", Table: "orders", Event: "INSERT OR UPDATE"}}, trs)
}

func expectDescribe(mock sqlmock.Sqlmock, d dialect.Dialect, table string, fks [][]any) {
	mock.ExpectQuery(d.ColumnsQuery()).WithArgs(table).WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "nullable", "default", "identity"}).AddRow("id", "int", "NO", nil, "YES"),
	)
	mock.ExpectQuery(d.PrimaryKeyQuery()).WithArgs(table).WillReturnRows(
		sqlmock.NewRows([]string{"column"}).AddRow("id"),
	)
	rows := sqlmock.NewRows([]string{"name", "column", "ref_table", "ref_column"})
	for _, fk := range fks {
		vals := make([]driver.Value, len(fk))
		for i, v := range fk {
			vals[i] = v
		}
		rows.AddRow(vals...)
	}
	mock.ExpectQuery(d.ForeignKeysQuery()).WithArgs(table).WillReturnRows(rows)
}

func TestDescribeTable_Dependencies(t *testing.T) {
	h, mock := newHandle(t, dialect.SQLServer)
	expectDescribe(mock, h.Dialect, "order_items", [][]any{
		{"fk_items_order", "order_id", "orders", "id"},
		{"fk_items_order2", "order_ref", "orders", "id"},
		{"fk_items_parent", "parent_id", "order_items", "id"},
		{"fk_items_product", "product_id", "products", "id"},
	})

	tbl, err := schema.DescribeTable(context.Background(), h, "order_items")
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, tbl.PrimaryKey)
	assert.Len(t, tbl.ForeignKeys, 4)
	assert.Equal(t, []string{"orders", "products"}, tbl.Dependencies)
	assert.True(t, tbl.HasIdentity())
}

func TestAnalyze_OrdersAndReportsFailures(t *testing.T) {
	h, mock := newHandle(t, dialect.SQLServer)
	mock.MatchExpectationsInOrder(false)
	expectDescribe(mock, h.Dialect, "orders", [][]any{{"fk_orders_customer", "customer_id", "customers", "id"}})
	expectDescribe(mock, h.Dialect, "customers", nil)
	expectDescribe(mock, h.Dialect, "invoices", [][]any{{"fk_inv_external", "ext_id", "external_ledger", "id"}})
	mock.ExpectQuery(h.Dialect.ColumnsQuery()).WithArgs("locked").WillReturnError(errors.New("The SELECT permission was denied"))

	tables, failed := schema.Analyze(context.Background(), h, []string{"orders", "customers", "invoices", "locked"})

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"customers", "invoices", "orders"}, names)
	assert.Empty(t, tables[1].Dependencies, "unknown referenced tables are ignored")
	require.Contains(t, failed, "locked")
	assert.Contains(t, failed["locked"].Error(), "permission was denied")
}

func TestDefinition(t *testing.T) {
	h, mock := newHandle(t, dialect.SQLServer)
	q := h.Dialect.DefinitionQuery(dialect.KindView)
	mock.ExpectQuery(q).WithArgs("v_orders").WillReturnRows(
		sqlmock.NewRows([]string{"def"}).AddRow("CREATE VIEW v_orders AS SELECT 1 AS x"),
	)
	mock.ExpectQuery(q).WithArgs("v_secret").WillReturnRows(
		sqlmock.NewRows([]string{"def"}).AddRow(nil),
	)
	mock.ExpectQuery(q).WithArgs("v_gone").WillReturnError(sql.ErrNoRows)
	ctx := context.Background()

	def, err := schema.Definition(ctx, h, dialect.KindView, "v_orders")
	require.NoError(t, err)
	assert.Equal(t, "CREATE VIEW v_orders AS SELECT 1 AS x", def)

	_, err = schema.Definition(ctx, h, dialect.KindView, "v_secret")
	assert.ErrorContains(t, err, "not readable")

	_, err = schema.Definition(ctx, h, dialect.KindView, "v_gone")
	assert.Error(t, err)

	ora, _ := newHandle(t, dialect.Oracle)
	_, err = schema.Definition(ctx, ora, dialect.KindProcedure, "p")
	assert.ErrorContains(t, err, "not available")
}
