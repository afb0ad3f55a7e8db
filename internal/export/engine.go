// Package export produces portable SQL text dumps of whole databases.
//
// MySQL and PostgreSQL are dumped by their native tools. SQL Server has no dependable
// dump utility, its dump is synthesized from catalog metadata and table data.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"db-hub/internal/connstr"
	"db-hub/internal/dberr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"

	log "github.com/sirupsen/logrus"
)

// Resolver is the part of the registry the export engine needs.
type Resolver interface {
	Resolve(t registry.Target) (connstr.ConnString, dialect.Dialect, error)
	AcquireDatabase(ctx context.Context, t registry.Target, database string) (*registry.Handle, error)
}

type Engine struct {
	reg       Resolver
	tempDir   string
	toolPaths map[dialect.Type]string
	extraArgs map[dialect.Type][]string
	progress  func(done, total int)
	now       func() time.Time
}

func New(reg Resolver, opts ...Option) *Engine {
	e := &Engine{
		reg:       reg,
		toolPaths: make(map[dialect.Type]string),
		extraArgs: make(map[dialect.Type][]string),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Export dumps dbName into a new temporary file and returns its path. The caller owns the
// file and must remove it. On failure no file is left behind.
func (e *Engine) Export(ctx context.Context, t registry.Target, dbName string, opts Options) (string, error) {
	if dbName == "" {
		return "", &dberr.ValidationError{Field: "database", Reason: "name is required"}
	}

	cs, d, err := e.reg.Resolve(t)
	if err != nil {
		return "", err
	}
	if d.DumpTool() == nil && !d.Synthesizes() {
		return "", &dberr.InvalidDialectError{Dialect: string(d.Type()), Reason: "export is not supported"}
	}
	if tool := d.DumpTool(); tool != nil && !tool.NoTables && opts.objectsOnly() {
		return "", &dberr.ValidationError{
			Field:  "objects",
			Reason: fmt.Sprintf("%s cannot export procedures, functions or triggers without tables, select their tables too", tool.Binary),
		}
	}

	f, err := os.CreateTemp(e.tempDir, "dbhub-export-*.sql")
	if err != nil {
		return "", &dberr.ExportError{Dialect: string(d.Type()), Database: dbName, Err: fmt.Errorf("failed to create artifact: %w", err)}
	}
	path := f.Name()
	done := false
	defer func() {
		if !done {
			f.Close()
			os.Remove(path)
		}
	}()

	logger := log.WithFields(log.Fields{"dialect": d.Type(), "database": dbName})
	logger.Info("Exporting database")

	if err := e.writeHeader(f, dbName); err != nil {
		return "", &dberr.ExportError{Dialect: string(d.Type()), Database: dbName, Err: err}
	}

	if d.DumpTool() != nil {
		err = e.dumpWithTool(ctx, f, cs, d, dbName, opts)
	} else {
		err = e.synthesize(ctx, f, t, d, dbName, opts)
	}
	if err != nil {
		logger.Errorf("Export failed: %v", err)
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", &dberr.ExportError{Dialect: string(d.Type()), Database: dbName, Err: err}
	}
	done = true

	logger.WithField("path", path).Info("Export completed")
	return path, nil
}

func (e *Engine) writeHeader(w io.Writer, dbName string) error {
	_, err := fmt.Fprintf(w, "-- Database Export: %s\n-- Generated: %s\n\n", dbName, e.now().Format(time.RFC3339))
	return err
}

func (e *Engine) report(done, total int) {
	if e.progress != nil {
		e.progress(done, total)
	}
}
