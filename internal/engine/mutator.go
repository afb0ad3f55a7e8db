package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"db-hub/internal/dberr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"
)

// Mutator updates and deletes single rows identified by their primary key values.
type Mutator struct {
	reg Acquirer
}

func NewMutator(reg Acquirer) *Mutator {
	return &Mutator{reg: reg}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// whereClause binds pk values starting at placeholder index next. nil values become IS NULL.
func whereClause(d dialect.Dialect, pk map[string]any, next int) (string, []any) {
	var conds []string
	var args []any
	for _, k := range sortedKeys(pk) {
		col := d.QuoteIdentifier(k)
		if pk[k] == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = %s", col, d.Placeholder(next)))
		args = append(args, pk[k])
		next++
	}
	return strings.Join(conds, " AND "), args
}

func buildUpdate(d dialect.Dialect, table string, pk, values map[string]any) dialect.Statement {
	var sets []string
	var args []any
	for i, k := range sortedKeys(values) {
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdentifier(k), d.Placeholder(i)))
		args = append(args, values[k])
	}
	where, whereArgs := whereClause(d, pk, len(args))
	return dialect.Statement{
		SQL:  fmt.Sprintf("UPDATE %s SET %s WHERE %s", dialect.QuoteTable(d, table), strings.Join(sets, ", "), where),
		Args: append(args, whereArgs...),
	}
}

func buildDelete(d dialect.Dialect, table string, pk map[string]any) dialect.Statement {
	where, args := whereClause(d, pk, 0)
	return dialect.Statement{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s", dialect.QuoteTable(d, table), where),
		Args: args,
	}
}

// UpdateRow sets values on the row matching pk. It reports whether any row changed.
func (m *Mutator) UpdateRow(ctx context.Context, t registry.Target, table string, pk, values map[string]any) (bool, error) {
	if err := validateRow(table, pk); err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, &dberr.ValidationError{Field: "values", Reason: "at least one column to update is required"}
	}
	return m.apply(ctx, t, func(d dialect.Dialect) dialect.Statement {
		return buildUpdate(d, table, pk, values)
	})
}

// DeleteRow removes the row matching pk. It reports whether any row was deleted.
func (m *Mutator) DeleteRow(ctx context.Context, t registry.Target, table string, pk map[string]any) (bool, error) {
	if err := validateRow(table, pk); err != nil {
		return false, err
	}
	return m.apply(ctx, t, func(d dialect.Dialect) dialect.Statement {
		return buildDelete(d, table, pk)
	})
}

func validateRow(table string, pk map[string]any) error {
	if table == "" {
		return &dberr.ValidationError{Field: "table", Reason: "name is required"}
	}
	if len(pk) == 0 {
		return &dberr.ValidationError{Field: "primary_key", Reason: "at least one key column is required"}
	}
	return nil
}

func (m *Mutator) apply(ctx context.Context, t registry.Target, build func(dialect.Dialect) dialect.Statement) (bool, error) {
	h, err := m.reg.Acquire(ctx, t)
	if err != nil {
		return false, err
	}
	defer h.Release()

	ctx, cancel := h.Context(ctx)
	defer cancel()

	stmt := build(h.Dialect)

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, classifyError(h.Dialect, "row mutation", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return false, classifyError(h.Dialect, "row mutation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classifyError(h.Dialect, "row mutation", err)
	}
	if err := tx.Commit(); err != nil {
		return false, classifyError(h.Dialect, "row mutation", err)
	}
	return n > 0, nil
}
