package metadata

import (
	"errors"
	"fmt"
)

// ErrUndeclaredSchema is wrapped by resolver errors for a reference to a
// schema name the document never declares.
var ErrUndeclaredSchema = errors.New("undeclared schema")

// ConsistencyError reports extracted metadata that references something the
// document does not declare. It is fatal for a run.
type ConsistencyError struct {
	Path   string // resource path, or "/schemas/<name>" for declarations
	Method string // empty for declarations
	Cause  error
}

func (e *ConsistencyError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("metadata: %s %s: %v", e.Method, e.Path, e.Cause)
	}
	return fmt.Sprintf("metadata: %s: %v", e.Path, e.Cause)
}

func (e *ConsistencyError) Unwrap() error { return e.Cause }
