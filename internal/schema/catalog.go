package schema

import (
	"context"
	"database/sql"
	"fmt"

	"db-hub/internal/dialect"
	"db-hub/internal/registry"
)

// The functions in this file return errors to the caller. Inspector wraps them for
// callers that prefer empty results over failures.

func queryNames(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		if name.Valid {
			names = append(names, name.String)
		}
	}
	return names, rows.Err()
}

// Databases lists every database on the server, system databases included.
func Databases(ctx context.Context, h *registry.Handle) ([]string, error) {
	return queryNames(ctx, h.DB, h.Dialect.DatabasesQuery())
}

// Tables lists the base tables of the handle's current database and schema.
func Tables(ctx context.Context, h *registry.Handle) ([]string, error) {
	return queryNames(ctx, h.DB, h.Dialect.TablesQuery())
}

func Views(ctx context.Context, h *registry.Handle) ([]string, error) {
	return queryNames(ctx, h.DB, h.Dialect.ViewsQuery())
}

func Columns(ctx context.Context, h *registry.Handle, table string) ([]*Column, error) {
	rows, err := h.DB.QueryContext(ctx, h.Dialect.ColumnsQuery(), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := []*Column{}
	for rows.Next() {
		var name, dataType, nullable, def, identity sql.NullString
		if err := rows.Scan(&name, &dataType, &nullable, &def, &identity); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", table, err)
		}
		if !name.Valid {
			continue
		}
		col := &Column{
			Name:         name.String,
			DeclaredType: dataType.String,
			Nullable:     nullable.String == "YES",
			Identity:     identity.String == "YES",
		}
		if def.Valid {
			v := def.String
			col.Default = &v
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func PrimaryKey(ctx context.Context, h *registry.Handle, table string) ([]string, error) {
	return queryNames(ctx, h.DB, h.Dialect.PrimaryKeyQuery(), table)
}

func ForeignKeys(ctx context.Context, h *registry.Handle, table string) ([]*ForeignKey, error) {
	rows, err := h.DB.QueryContext(ctx, h.Dialect.ForeignKeysQuery(), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := []*ForeignKey{}
	for rows.Next() {
		var name, col, refTable, refCol sql.NullString
		if err := rows.Scan(&name, &col, &refTable, &refCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key (table: %s): %w", table, err)
		}
		fks = append(fks, &ForeignKey{
			Name:      name.String,
			Column:    col.String,
			RefTable:  refTable.String,
			RefColumn: refCol.String,
		})
	}
	return fks, rows.Err()
}

// Indexes groups the per-column catalog rows into one Index per name, keeping column order.
func Indexes(ctx context.Context, h *registry.Handle, table string) ([]*Index, error) {
	rows, err := h.DB.QueryContext(ctx, h.Dialect.IndexesQuery(), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := []*Index{}
	byName := make(map[string]*Index)
	for rows.Next() {
		var name, col, unique sql.NullString
		if err := rows.Scan(&name, &col, &unique); err != nil {
			return nil, fmt.Errorf("failed to scan index (table: %s): %w", table, err)
		}
		idx, ok := byName[name.String]
		if !ok {
			idx = &Index{Name: name.String, Unique: unique.String == "YES"}
			byName[name.String] = idx
			indexes = append(indexes, idx)
		}
		idx.Columns = append(idx.Columns, col.String)
	}
	return indexes, rows.Err()
}

func Routines(ctx context.Context, h *registry.Handle, kind dialect.ObjectKind) ([]*Routine, error) {
	query := h.Dialect.ProceduresQuery()
	if kind == dialect.KindFunction {
		query = h.Dialect.FunctionsQuery()
	}
	rows, err := h.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines := []*Routine{}
	for rows.Next() {
		var name, extra sql.NullString
		if err := rows.Scan(&name, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		routines = append(routines, &Routine{Name: name.String, Type: string(kind), Extra: extra.String})
	}
	return routines, rows.Err()
}

func Triggers(ctx context.Context, h *registry.Handle) ([]*Trigger, error) {
	rows, err := h.DB.QueryContext(ctx, h.Dialect.TriggersQuery())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	triggers := []*Trigger{}
	for rows.Next() {
		var name, table, event sql.NullString
		if err := rows.Scan(&name, &table, &event); err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		triggers = append(triggers, &Trigger{Name: name.String, Table: table.String, Event: event.String})
	}
	return triggers, rows.Err()
}

// Definition returns the source text of a view, routine or trigger.
func Definition(ctx context.Context, h *registry.Handle, kind dialect.ObjectKind, name string) (string, error) {
	query := h.Dialect.DefinitionQuery(kind)
	if query == "" {
		return "", fmt.Errorf("%s definitions are not available for %s", kind, h.Dialect.Type())
	}

	var def sql.NullString
	if err := h.DB.QueryRowContext(ctx, query, name).Scan(&def); err != nil {
		return "", fmt.Errorf("failed to read definition of %s %s: %w", kind, name, err)
	}
	if !def.Valid || def.String == "" {
		return "", fmt.Errorf("definition of %s %s is not readable", kind, name)
	}
	return def.String, nil
}

// DescribeTable collects columns, primary key and foreign keys of one table.
func DescribeTable(ctx context.Context, h *registry.Handle, name string) (*Table, error) {
	cols, err := Columns(ctx, h, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s has no visible columns", name)
	}
	pk, err := PrimaryKey(ctx, h, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	fks, err := ForeignKeys(ctx, h, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}

	t := &Table{
		Name:         name,
		Columns:      cols,
		PrimaryKey:   pk,
		ForeignKeys:  fks,
		Dependencies: []string{},
	}
	seen := make(map[string]bool)
	for _, fk := range fks {
		if fk.RefTable == "" || fk.RefTable == name || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		t.Dependencies = append(t.Dependencies, fk.RefTable)
	}
	return t, nil
}
