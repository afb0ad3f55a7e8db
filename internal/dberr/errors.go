// Package dberr defines the failure taxonomy shared by every db-hub component.
//
// All errors keep the original diagnostic text of the driver or tool that produced
// them and can be inspected with errors.As.
package dberr

import (
	"fmt"
	"strings"
)

// ConnectionError is returned when a target cannot be reached or authenticated against.
type ConnectionError struct {
	Dialect string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Dialect, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryExecutionError covers malformed SQL, constraint violations and failed mutations.
type QueryExecutionError struct {
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// InvalidDialectError is returned when an operation is requested for a dialect that
// does not support it, or when a dialect cannot be determined at all.
type InvalidDialectError struct {
	Dialect string
	Reason  string
}

func (e *InvalidDialectError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unsupported database type: %s", e.Dialect)
	}
	return fmt.Sprintf("unsupported database type %q: %s", e.Dialect, e.Reason)
}

// PermissionError is a failure recognised as missing privileges, carrying a hint the
// caller can show to the user.
type PermissionError struct {
	Dialect   string
	Operation string
	Detail    string
	Hint      string
	Err       error
}

func (e *PermissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "permission denied during %s on %s", e.Operation, e.Dialect)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ValidationError is returned when required input is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExportError is an export failure not attributable to permissions. Detail, when set,
// carries the diagnostic output of the dump tool.
type ExportError struct {
	Dialect  string
	Database string
	Detail   string
	Err      error
}

func (e *ExportError) Error() string {
	msg := fmt.Sprintf("export of %s database %q failed", e.Dialect, e.Database)
	switch {
	case e.Detail != "":
		msg += ": " + e.Detail
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExportError) Unwrap() error { return e.Err }
