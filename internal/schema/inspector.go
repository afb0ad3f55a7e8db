package schema

import (
	"context"

	"db-hub/internal/dialect"
	"db-hub/internal/registry"

	log "github.com/sirupsen/logrus"
)

// Acquirer hands out connection handles.
type Acquirer interface {
	Acquire(ctx context.Context, t registry.Target) (*registry.Handle, error)
}

// Inspector answers catalog questions for a target. Introspection is best effort: every
// failure is logged and turns into an empty result.
type Inspector struct {
	reg Acquirer
}

func NewInspector(reg Acquirer) *Inspector {
	return &Inspector{reg: reg}
}

func collect[T any](ctx context.Context, reg Acquirer, t registry.Target, what string, fn func(context.Context, *registry.Handle) ([]T, error)) []T {
	logger := log.WithFields(log.Fields{"dialect": t.Dialect, "lookup": what})

	h, err := reg.Acquire(ctx, t)
	if err != nil {
		logger.Warnf("Introspection skipped: %v", err)
		return []T{}
	}
	defer h.Release()

	ctx, cancel := h.Context(ctx)
	defer cancel()

	out, err := fn(ctx, h)
	if err != nil {
		logger.Warnf("Introspection failed: %v", err)
		return []T{}
	}
	if out == nil {
		return []T{}
	}
	return out
}

// ListDatabases returns user databases, system databases removed.
func (i *Inspector) ListDatabases(ctx context.Context, t registry.Target) []string {
	return collect(ctx, i.reg, t, "databases", func(ctx context.Context, h *registry.Handle) ([]string, error) {
		all, err := Databases(ctx, h)
		if err != nil {
			return nil, err
		}
		system := make(map[string]bool)
		for _, s := range h.Dialect.SystemDatabases() {
			system[s] = true
		}
		user := []string{}
		for _, name := range all {
			if !system[name] {
				user = append(user, name)
			}
		}
		return user, nil
	})
}

func (i *Inspector) ListTables(ctx context.Context, t registry.Target) []string {
	return collect(ctx, i.reg, t, "tables", Tables)
}

func (i *Inspector) ListViews(ctx context.Context, t registry.Target) []string {
	return collect(ctx, i.reg, t, "views", Views)
}

func (i *Inspector) Columns(ctx context.Context, t registry.Target, table string) []*Column {
	return collect(ctx, i.reg, t, "columns", func(ctx context.Context, h *registry.Handle) ([]*Column, error) {
		return Columns(ctx, h, table)
	})
}

func (i *Inspector) PrimaryKey(ctx context.Context, t registry.Target, table string) []string {
	return collect(ctx, i.reg, t, "primary key", func(ctx context.Context, h *registry.Handle) ([]string, error) {
		return PrimaryKey(ctx, h, table)
	})
}

func (i *Inspector) ForeignKeys(ctx context.Context, t registry.Target, table string) []*ForeignKey {
	return collect(ctx, i.reg, t, "foreign keys", func(ctx context.Context, h *registry.Handle) ([]*ForeignKey, error) {
		return ForeignKeys(ctx, h, table)
	})
}

func (i *Inspector) Indexes(ctx context.Context, t registry.Target, table string) []*Index {
	return collect(ctx, i.reg, t, "indexes", func(ctx context.Context, h *registry.Handle) ([]*Index, error) {
		return Indexes(ctx, h, table)
	})
}

func (i *Inspector) ListProcedures(ctx context.Context, t registry.Target) []*Routine {
	return collect(ctx, i.reg, t, "procedures", func(ctx context.Context, h *registry.Handle) ([]*Routine, error) {
		return Routines(ctx, h, dialect.KindProcedure)
	})
}

func (i *Inspector) ListFunctions(ctx context.Context, t registry.Target) []*Routine {
	return collect(ctx, i.reg, t, "functions", func(ctx context.Context, h *registry.Handle) ([]*Routine, error) {
		return Routines(ctx, h, dialect.KindFunction)
	})
}

func (i *Inspector) ListTriggers(ctx context.Context, t registry.Target) []*Trigger {
	return collect(ctx, i.reg, t, "triggers", Triggers)
}
