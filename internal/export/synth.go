package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"db-hub/internal/dberr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"
	"db-hub/internal/schema"

	log "github.com/sirupsen/logrus"
)

// Columns the server fills itself and refuses in INSERT.
var generatedTypes = map[string]bool{"timestamp": true, "rowversion": true}

type section struct {
	title string
	kind  dialect.ObjectKind
	names []string
}

// synthesize writes a dump built from catalog metadata and table data. A table or object
// that cannot be exported becomes a comment, the rest of the dump goes on.
func (e *Engine) synthesize(ctx context.Context, w io.Writer, t registry.Target, d dialect.Dialect, dbName string, opts Options) error {
	h, err := e.reg.AcquireDatabase(ctx, t, dbName)
	if err != nil {
		return err
	}
	defer h.Release()

	logger := log.WithFields(log.Fields{"dialect": d.Type(), "database": dbName})

	tables := opts.Tables
	if opts.AllTables() {
		names, err := schema.Tables(ctx, h)
		if err != nil {
			return &dberr.ExportError{Dialect: string(d.Type()), Database: dbName, Err: fmt.Errorf("failed to list tables: %w", err)}
		}
		tables = tables[:0:0]
		for _, name := range names {
			if !dialect.HasSystemPrefix(d, name) {
				tables = append(tables, name)
			}
		}
	}

	sections := []section{
		{"Views", dialect.KindView, opts.Views},
		{"Procedures", dialect.KindProcedure, opts.Procedures},
		{"Functions", dialect.KindFunction, opts.Functions},
		{"Triggers", dialect.KindTrigger, opts.Triggers},
	}

	total := len(tables)
	for _, s := range sections {
		total += len(s.names)
	}
	done := 0
	step := func() {
		done++
		e.report(done, total)
	}
	e.report(0, total)

	bw := bufio.NewWriter(w)

	if len(tables) > 0 {
		fmt.Fprint(bw, "-- \n-- Table Structure\n-- \n\n")

		sorted, failed := schema.Analyze(ctx, h, tables)
		for _, tbl := range sorted {
			var buf bytes.Buffer
			if err := e.writeTable(ctx, &buf, h, tbl, opts.IncludeData); err != nil {
				logger.WithField("table", tbl.Name).Warnf("Skipping table: %v", err)
				fmt.Fprintf(bw, "-- Error exporting table %s: %s\n\n", tbl.Name, oneLine(err))
			} else {
				buf.WriteTo(bw)
			}
			step()
		}
		for _, name := range tables {
			if err, ok := failed[name]; ok {
				logger.WithField("table", name).Warnf("Skipping table: %v", err)
				fmt.Fprintf(bw, "-- Error exporting table %s: %s\n\n", name, oneLine(err))
				step()
			}
		}
	}

	for _, s := range sections {
		if len(s.names) == 0 {
			continue
		}
		fmt.Fprintf(bw, "-- \n-- %s\n-- \n\n", s.title)
		for _, name := range s.names {
			def, err := schema.Definition(ctx, h, s.kind, name)
			if err != nil {
				logger.WithField("object", name).Warnf("Skipping %s: %v", strings.ToLower(string(s.kind)), err)
				fmt.Fprintf(bw, "-- Error exporting %s %s: %s\n\n", strings.ToLower(string(s.kind)), name, oneLine(err))
			} else {
				fmt.Fprintf(bw, "%s\nGO\n\n", strings.TrimSpace(def))
			}
			step()
		}
	}

	if err := bw.Flush(); err != nil {
		return &dberr.ExportError{Dialect: string(d.Type()), Database: dbName, Err: err}
	}
	return nil
}

func oneLine(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}

func (e *Engine) writeTable(ctx context.Context, w *bytes.Buffer, h *registry.Handle, tbl *schema.Table, includeData bool) error {
	w.WriteString(createTableSQL(h.Dialect, tbl))
	w.WriteString(";\n\n")

	if !includeData {
		return nil
	}
	return writeRows(ctx, w, h, tbl)
}

func createTableSQL(d dialect.Dialect, tbl *schema.Table) string {
	var lines []string
	for _, c := range tbl.Columns {
		line := fmt.Sprintf("    %s %s", d.QuoteIdentifier(c.Name), c.DeclaredType)
		if c.Identity {
			line += " IDENTITY(1,1)"
		}
		if c.Nullable {
			line += " NULL"
		} else {
			line += " NOT NULL"
		}
		if c.Default != nil && !c.Identity {
			line += " DEFAULT " + *c.Default
		}
		lines = append(lines, line)
	}

	if len(tbl.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", quoteList(d, tbl.PrimaryKey)))
	}

	// Composite foreign keys arrive as one row per column.
	type fkGroup struct {
		name, refTable string
		cols, refCols  []string
	}
	var groups []*fkGroup
	byName := make(map[string]*fkGroup)
	for _, fk := range tbl.ForeignKeys {
		g, ok := byName[fk.Name]
		if !ok {
			g = &fkGroup{name: fk.Name, refTable: fk.RefTable}
			byName[fk.Name] = g
			groups = append(groups, g)
		}
		g.cols = append(g.cols, fk.Column)
		g.refCols = append(g.refCols, fk.RefColumn)
	}
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdentifier(g.name), quoteList(d, g.cols), dialect.QuoteTable(d, g.refTable), quoteList(d, g.refCols)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", dialect.QuoteTable(d, tbl.Name), strings.Join(lines, ",\n"))
}

func quoteList(d dialect.Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// writeRows streams the table's rows as INSERT statements. Identity columns are inserted
// with their original values, so IDENTITY_INSERT is switched on around the batch.
func writeRows(ctx context.Context, w *bytes.Buffer, h *registry.Handle, tbl *schema.Table) error {
	d := h.Dialect

	var cols []string
	for _, c := range tbl.Columns {
		if generatedTypes[strings.ToLower(c.DeclaredType)] {
			continue
		}
		cols = append(cols, c.Name)
	}
	colList := quoteList(d, cols)
	table := dialect.QuoteTable(d, tbl.Name)

	rows, err := h.DB.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", colList, table))
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	identity := tbl.HasIdentity()
	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if count == 0 {
			fmt.Fprintf(w, "-- Data for %s\n", tbl.Name)
			if identity {
				w.WriteString(d.IdentityInsert(tbl.Name, true) + "\n")
			}
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = sqlLiteral(v, types[i].DatabaseTypeName())
		}
		fmt.Fprintf(w, "INSERT INTO %s (%s) VALUES (%s);\n", table, colList, strings.Join(literals, ", "))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	if count > 0 {
		if identity {
			w.WriteString(d.IdentityInsert(tbl.Name, false) + "\n")
		}
		w.WriteString("\n")
	}
	return nil
}
