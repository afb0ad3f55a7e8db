package registry

import (
	"context"
	"database/sql"
	"time"

	"db-hub/internal/dialect"
)

// Target identifies what a caller wants to talk to: a dialect, optionally with a raw
// connection string overriding the configured one.
type Target struct {
	Dialect    dialect.Type
	ConnString string
}

// Handle is a live, pooled connection to one database. It is safe for concurrent use.
type Handle struct {
	DB       *sql.DB
	Dialect  dialect.Dialect
	Database string

	cached  bool
	timeout time.Duration
}

// Cached reports whether the handle is owned by the registry.
func (h *Handle) Cached() bool {
	return h.cached
}

// Context bounds ctx by the per-statement timeout.
func (h *Handle) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

// Release closes ad hoc handles. Cached handles stay open until disposed.
func (h *Handle) Release() error {
	if h == nil || h.cached {
		return nil
	}
	return h.DB.Close()
}
