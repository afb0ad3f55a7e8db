package export

import (
	"db-hub/internal/dialect"
)

// Options selects what goes into a dump. When every list is empty the dump holds all
// tables (with data when IncludeData is set) and no views, routines or triggers.
type Options struct {
	IncludeData bool
	Tables      []string
	Views       []string
	Procedures  []string
	Functions   []string
	Triggers    []string
}

// DefaultOptions exports every table with its data.
func DefaultOptions() Options {
	return Options{IncludeData: true}
}

// AllTables reports whether no object was selected explicitly.
func (o Options) AllTables() bool {
	return len(o.Tables) == 0 && len(o.Views) == 0 && len(o.Procedures) == 0 &&
		len(o.Functions) == 0 && len(o.Triggers) == 0
}

// objectsOnly reports whether only routines or triggers were selected, no table or view.
func (o Options) objectsOnly() bool {
	return !o.AllTables() && len(o.Tables) == 0 && len(o.Views) == 0
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress reports progress after each exported object.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithTempDir sets where artifacts are created. The default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(e *Engine) {
		e.tempDir = dir
	}
}

// WithToolPath overrides the dump binary of a dialect.
func WithToolPath(t dialect.Type, path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.toolPaths[t] = path
		}
	}
}

// WithExtraArgs appends flags to the dump tool invocation of a dialect.
func WithExtraArgs(t dialect.Type, args []string) Option {
	return func(e *Engine) {
		e.extraArgs[t] = append([]string(nil), args...)
	}
}
