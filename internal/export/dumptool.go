package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"db-hub/internal/connstr"
	"db-hub/internal/dberr"
	"db-hub/internal/dialect"

	"github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
)

// RunError is the failure of a dump tool invocation.
type RunError struct {
	cmd    string
	args   []string
	err    error
	stderr string
}

func (e RunError) Error() string {
	if e.stderr == "" {
		return fmt.Sprintf("Failed to run: %s %s: %v", e.cmd, shellquote.Join(e.args...), e.err)
	}
	return fmt.Sprintf("Failed to run: %s %s: %v (%s)", e.cmd, shellquote.Join(e.args...), e.err, e.stderr)
}

func (e RunError) Unwrap() error {
	return e.err
}

// StdErr returns what the tool wrote to stderr.
func (e RunError) StdErr() string {
	return e.stderr
}

// Substrings of tool diagnostics that mean the account lacks privileges.
var permissionSignatures = []string{
	"access denied",
	"permission denied",
	"insufficient privilege",
	"must be owner",
	"1044",
	"1045",
	"1227",
}

var permissionHints = map[dialect.Type]string{
	dialect.MySQL:    "grant the user SELECT, SHOW VIEW, TRIGGER, LOCK TABLES and PROCESS, or export with an administrative account",
	dialect.Postgres: "grant the user SELECT on the exported tables and USAGE on their schema, or export as the database owner",
}

func isPermissionFailure(stderr string) bool {
	s := strings.ToLower(stderr)
	for _, sig := range permissionSignatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}

func (e *Engine) toolPath(d dialect.Dialect) string {
	if p, ok := e.toolPaths[d.Type()]; ok {
		return p
	}
	return d.DumpTool().Binary
}

// dumpWithTool runs the dialect's dump utility and appends its stdout to w. The password
// travels in the child environment only.
func (e *Engine) dumpWithTool(ctx context.Context, w io.Writer, cs connstr.ConnString, d dialect.Dialect, dbName string, opts Options) error {
	tool := d.DumpTool()

	req := dialect.DumpRequest{
		Host:       cs.Host,
		Port:       cs.Port,
		User:       cs.User,
		Database:   dbName,
		SchemaOnly: !opts.IncludeData,
		Objects:    append(append([]string(nil), opts.Tables...), opts.Views...),
		NoTables:   opts.objectsOnly(),
		Routines:   len(opts.Procedures)+len(opts.Functions) > 0,
		Triggers:   len(opts.Triggers) > 0,
	}
	args := append(append([]string(nil), e.extraArgs[d.Type()]...), d.DumpArgs(req)...)
	bin := e.toolPath(d)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), tool.PasswordEnv+"="+cs.Password)
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.WithFields(log.Fields{"dialect": d.Type(), "database": dbName}).Debugf("Running %s", shellquote.Join(append([]string{bin}, args...)...))

	e.report(0, 1)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		runErr := RunError{cmd: bin, args: args, err: err, stderr: msg}
		if isPermissionFailure(msg) {
			return &dberr.PermissionError{
				Dialect:   string(d.Type()),
				Operation: "export",
				Detail:    msg,
				Hint:      permissionHints[d.Type()],
				Err:       runErr,
			}
		}
		return &dberr.ExportError{Dialect: string(d.Type()), Database: dbName, Detail: msg, Err: runErr}
	}
	e.report(1, 1)
	return nil
}
