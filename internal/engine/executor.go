// Package engine runs statements against registry handles: ad-hoc SQL, single row
// mutations and database lifecycle DDL.
package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"db-hub/internal/dberr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"

	log "github.com/sirupsen/logrus"
)

// Acquirer hands out connection handles.
type Acquirer interface {
	Acquire(ctx context.Context, t registry.Target) (*registry.Handle, error)
}

// Result is either a row set or an affected row count, never both.
type Result struct {
	Columns      []string
	Rows         []map[string]any
	RowsAffected *int64
}

// HasRows reports whether the result is a row set.
func (r *Result) HasRows() bool {
	return r.RowsAffected == nil
}

func (r *Result) MarshalJSON() ([]byte, error) {
	if r.HasRows() {
		return json.Marshal(struct {
			Columns []string         `json:"columns"`
			Rows    []map[string]any `json:"rows"`
		}{r.Columns, r.Rows})
	}
	return json.Marshal(struct {
		RowsAffected int64 `json:"rows_affected"`
	}{*r.RowsAffected})
}

func affected(n int64) *Result {
	return &Result{RowsAffected: &n}
}

type Executor struct {
	reg Acquirer
}

func NewExecutor(reg Acquirer) *Executor {
	return &Executor{reg: reg}
}

// Execute runs query verbatim inside a transaction and commits it.
func (e *Executor) Execute(ctx context.Context, t registry.Target, query string) (*Result, error) {
	h, err := e.reg.Acquire(ctx, t)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	ctx, cancel := h.Context(ctx)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, classifyError(h.Dialect, "query", err)
	}
	defer tx.Rollback()

	var res *Result
	if ReturnsRows(query) {
		res, err = queryRows(ctx, tx, query)
	} else {
		res, err = execStatement(ctx, tx, query)
	}
	if err != nil {
		log.WithFields(log.Fields{"dialect": h.Dialect.Type(), "database": h.Database}).Debugf("Statement failed: %v", err)
		return nil, classifyError(h.Dialect, "query", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyError(h.Dialect, "query", err)
	}
	return res, nil
}

func execStatement(ctx context.Context, tx *sql.Tx, query string) (*Result, error) {
	r, err := tx.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}
	n, err := r.RowsAffected()
	if err != nil {
		// Some drivers cannot report a count for DDL.
		n = 0
	}
	return affected(n), nil
}

func queryRows(ctx context.Context, tx *sql.Tx, query string) (*Result, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	// Batches report an empty result set for each DECLARE or SET before the one with rows.
	for len(types) == 0 {
		if !rows.NextResultSet() {
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return affected(0), nil
		}
		if types, err = rows.ColumnTypes(); err != nil {
			return nil, fmt.Errorf("failed to read columns: %w", err)
		}
	}

	raw := make([]string, len(types))
	for i, ct := range types {
		raw[i] = ct.Name()
	}
	columns := uniqueColumnNames(raw)

	res := &Result{Columns: columns, Rows: []map[string]any{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i], types[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, rows.Close()
}

// classifyError maps a driver failure onto the error taxonomy, keeping the driver message.
func classifyError(d dialect.Dialect, op string, err error) error {
	if d.IsPermissionDenied(err) {
		return &dberr.PermissionError{
			Dialect:   string(d.Type()),
			Operation: op,
			Detail:    err.Error(),
			Hint:      "the connected user lacks the privilege for this statement",
			Err:       err,
		}
	}
	return &dberr.QueryExecutionError{Err: err}
}
