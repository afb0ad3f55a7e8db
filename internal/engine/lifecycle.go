package engine

import (
	"context"

	"db-hub/internal/dberr"
	"db-hub/internal/dialect"
	"db-hub/internal/registry"

	log "github.com/sirupsen/logrus"
)

// Catalog is the part of the registry the lifecycle manager needs.
type Catalog interface {
	Acquirer
	Retarget(t dialect.Type, database string) error
	Reset(t dialect.Type) error
	Database(t dialect.Type) string
}

// Lifecycle creates, drops and selects databases. Names are quoted, not sanitized.
type Lifecycle struct {
	reg Catalog
}

func NewLifecycle(reg Catalog) *Lifecycle {
	return &Lifecycle{reg: reg}
}

func (l *Lifecycle) Create(ctx context.Context, t registry.Target, name string) error {
	if name == "" {
		return &dberr.ValidationError{Field: "database", Reason: "name is required"}
	}
	return l.run(ctx, t, "create database", func(d dialect.Dialect) []dialect.Statement {
		return d.CreateDatabase(name)
	})
}

// Drop terminates other sessions where the dialect requires it and drops the database.
// A cached handle bound to the doomed database is moved back to the configured one first.
func (l *Lifecycle) Drop(ctx context.Context, t registry.Target, name string) error {
	if name == "" {
		return &dberr.ValidationError{Field: "database", Reason: "name is required"}
	}
	if t.ConnString == "" && t.Dialect != dialect.Custom && l.reg.Database(t.Dialect) == name {
		if err := l.reg.Reset(t.Dialect); err != nil {
			return err
		}
	}
	return l.run(ctx, t, "drop database", func(d dialect.Dialect) []dialect.Statement {
		return d.DropDatabase(name)
	})
}

// Select points the dialect's cached connection at another database.
func (l *Lifecycle) Select(ctx context.Context, t dialect.Type, name string) error {
	if name == "" {
		return &dberr.ValidationError{Field: "database", Reason: "name is required"}
	}
	if t == dialect.Custom {
		return &dberr.InvalidDialectError{Dialect: string(t), Reason: "custom connections cannot switch databases"}
	}
	return l.reg.Retarget(t, name)
}

func (l *Lifecycle) run(ctx context.Context, t registry.Target, op string, build func(dialect.Dialect) []dialect.Statement) error {
	h, err := l.reg.Acquire(ctx, t)
	if err != nil {
		return err
	}
	defer h.Release()

	d := h.Dialect
	if d.DDLMode() == dialect.DDLUnsupported {
		return &dberr.InvalidDialectError{Dialect: string(d.Type()), Reason: "database lifecycle is not supported"}
	}

	ctx, cancel := h.Context(ctx)
	defer cancel()

	stmts := build(d)
	logger := log.WithFields(log.Fields{"dialect": d.Type(), "operation": op})

	switch d.DDLMode() {
	case dialect.DDLTransactional:
		tx, err := h.DB.BeginTx(ctx, nil)
		if err != nil {
			return classifyError(d, op, err)
		}
		defer tx.Rollback()
		for _, s := range stmts {
			logger.Debugf("Executing: %s", s.SQL)
			if _, err := tx.ExecContext(ctx, s.SQL, s.Args...); err != nil {
				return classifyError(d, op, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return classifyError(d, op, err)
		}

	case dialect.DDLAutocommit:
		// A pinned connection keeps every statement on one session, outside any transaction block.
		conn, err := h.DB.Conn(ctx)
		if err != nil {
			return classifyError(d, op, err)
		}
		defer conn.Close()
		for _, s := range stmts {
			logger.Debugf("Executing: %s", s.SQL)
			if _, err := conn.ExecContext(ctx, s.SQL, s.Args...); err != nil {
				return classifyError(d, op, err)
			}
		}
	}

	logger.Info("Database lifecycle operation completed")
	return nil
}
