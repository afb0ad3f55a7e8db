// Package registry owns the connection pools of every configured dialect.
//
// Built-in dialects get one cached handle each, created lazily and guarded by a per-dialect
// lock. Connection string overrides and custom connections get fresh, uncached handles.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"db-hub/internal/connstr"
	"db-hub/internal/dberr"
	"db-hub/internal/dialect"

	log "github.com/sirupsen/logrus"
)

// PoolConfig sizes every pool the registry creates.
type PoolConfig struct {
	MaxSize          int
	Overflow         int
	Recycle          time.Duration
	StatementTimeout time.Duration
	ConnectTimeout   time.Duration
}

// Config holds the configured connection of each built-in dialect.
type Config struct {
	Connections map[dialect.Type]connstr.ConnString
	Pool        PoolConfig
}

// Opener opens a database pool. It defaults to sql.Open.
type Opener func(driver, dsn string) (*sql.DB, error)

type Option func(*Registry)

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(o Opener) Option {
	return func(r *Registry) {
		r.open = o
	}
}

type slot struct {
	mu         sync.Mutex
	configured connstr.ConnString
	current    connstr.ConnString
	handle     *Handle
}

type Registry struct {
	pool  PoolConfig
	open  Opener
	slots map[dialect.Type]*slot
}

func New(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		pool:  cfg.Pool,
		open:  sql.Open,
		slots: make(map[dialect.Type]*slot),
	}
	for _, t := range dialect.BuiltIn {
		if cs, ok := cfg.Connections[t]; ok {
			r.slots[t] = &slot{configured: cs, current: cs}
		}
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) slot(t dialect.Type) (*slot, error) {
	s, ok := r.slots[t]
	if !ok {
		if _, err := dialect.Get(t); err != nil {
			return nil, err
		}
		return nil, &dberr.InvalidDialectError{Dialect: string(t), Reason: "no connection configured"}
	}
	return s, nil
}

func isAdHoc(t Target) bool {
	return t.Dialect == dialect.Custom || t.ConnString != ""
}

// Acquire returns a live handle for the target. Built-in dialects without an override share
// one cached handle, everything else gets an uncached handle the caller must Release.
func (r *Registry) Acquire(ctx context.Context, t Target) (*Handle, error) {
	if isAdHoc(t) {
		d, err := dialect.Resolve(t.Dialect, t.ConnString)
		if err != nil {
			return nil, err
		}
		dsn, database := r.adHocDSN(d, t.ConnString)
		return r.connect(ctx, d, dsn, database, false)
	}

	s, err := r.slot(t.Dialect)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return s.handle, nil
	}

	d, err := dialect.Get(t.Dialect)
	if err != nil {
		return nil, err
	}
	dsn, err := s.current.DriverDSN(d.Type())
	if err != nil {
		return nil, err
	}
	h, err := r.connect(ctx, d, dsn, s.current.Database, true)
	if err != nil {
		return nil, err
	}
	s.handle = h

	log.WithFields(log.Fields{
		"dialect":  t.Dialect,
		"database": s.current.Database,
	}).Debug("Cached connection pool created")

	return h, nil
}

// AcquireDatabase returns an uncached handle to another database on the target's server.
func (r *Registry) AcquireDatabase(ctx context.Context, t Target, database string) (*Handle, error) {
	cs, d, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	dsn, err := cs.WithDatabase(database).DriverDSN(d.Type())
	if err != nil {
		return nil, err
	}
	return r.connect(ctx, d, dsn, database, false)
}

// adHocDSN turns an override string into a driver DSN. Strings the parser cannot read are
// handed to the driver verbatim.
func (r *Registry) adHocDSN(d dialect.Dialect, raw string) (string, string) {
	cs, err := connstr.Parse(raw)
	if err != nil {
		log.WithField("dialect", d.Type()).Debug("Connection string not parseable, passing it to the driver as is")
		return raw, ""
	}
	dsn, err := cs.DriverDSN(d.Type())
	if err != nil {
		return raw, cs.Database
	}
	return dsn, cs.Database
}

func (r *Registry) connect(ctx context.Context, d dialect.Dialect, dsn, database string, cached bool) (*Handle, error) {
	db, err := r.open(d.DriverName(), dsn)
	if err != nil {
		return nil, &dberr.ConnectionError{Dialect: string(d.Type()), Err: err}
	}

	if r.pool.MaxSize > 0 {
		db.SetMaxOpenConns(r.pool.MaxSize + r.pool.Overflow)
		db.SetMaxIdleConns(r.pool.MaxSize)
	}
	if r.pool.Recycle > 0 {
		db.SetConnMaxLifetime(r.pool.Recycle)
	}

	pingCtx := ctx
	if r.pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, r.pool.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &dberr.ConnectionError{Dialect: string(d.Type()), Err: err}
	}

	return &Handle{
		DB:       db,
		Dialect:  d,
		Database: database,
		cached:   cached,
		timeout:  r.pool.StatementTimeout,
	}, nil
}

// Resolve returns the effective connection string and dialect of a target without
// opening anything.
func (r *Registry) Resolve(t Target) (connstr.ConnString, dialect.Dialect, error) {
	if isAdHoc(t) {
		d, err := dialect.Resolve(t.Dialect, t.ConnString)
		if err != nil {
			return connstr.ConnString{}, nil, err
		}
		cs, err := connstr.Parse(t.ConnString)
		if err != nil {
			return connstr.ConnString{}, nil, err
		}
		return cs, d, nil
	}

	s, err := r.slot(t.Dialect)
	if err != nil {
		return connstr.ConnString{}, nil, err
	}
	d, err := dialect.Get(t.Dialect)
	if err != nil {
		return connstr.ConnString{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, d, nil
}

// Database returns the database the dialect's cached handle is bound to.
func (r *Registry) Database(t dialect.Type) string {
	s, ok := r.slots[t]
	if !ok {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Database
}

// Dispose closes the cached handle of a dialect. It is a no-op when there is none.
func (r *Registry) Dispose(t dialect.Type) {
	s, ok := r.slots[t]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispose(t)
}

func (s *slot) dispose(t dialect.Type) {
	if s.handle == nil {
		return
	}
	if err := s.handle.DB.Close(); err != nil {
		log.WithField("dialect", t).Warnf("Closing connection pool: %v", err)
	}
	s.handle = nil
}

// Retarget points a dialect's connection at another database. The cached handle is
// disposed, the next Acquire connects to the new database.
func (r *Registry) Retarget(t dialect.Type, database string) error {
	if database == "" {
		return &dberr.ValidationError{Field: "database", Reason: "name is required"}
	}
	s, err := r.slot(t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispose(t)
	s.current = s.current.WithDatabase(database)

	log.WithFields(log.Fields{"dialect": t, "database": database}).Info("Switched database")
	return nil
}

// Reset restores the configured database of a dialect.
func (r *Registry) Reset(t dialect.Type) error {
	s, err := r.slot(t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispose(t)
	s.current = s.configured
	return nil
}

// Ping verifies that the target is reachable.
func (r *Registry) Ping(ctx context.Context, t Target) error {
	h, err := r.Acquire(ctx, t)
	if err != nil {
		return err
	}
	defer h.Release()

	ctx, cancel := h.Context(ctx)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return &dberr.ConnectionError{Dialect: string(h.Dialect.Type()), Err: fmt.Errorf("ping: %w", err)}
	}
	return nil
}

// Close disposes every cached handle.
func (r *Registry) Close() {
	for t := range r.slots {
		r.Dispose(t)
	}
}
