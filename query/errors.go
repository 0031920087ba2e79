package query

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation is matched by every SchemaViolation.
var ErrSchemaViolation = errors.New("schema violation")

// SchemaViolation reports a filter key the endpoint does not declare.
type SchemaViolation struct {
	Endpoint string
	Path     string
	Reason   string
}

func (e *SchemaViolation) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "unknown field"
	}
	return fmt.Sprintf("%s: %s for endpoint %q", e.Path, reason, e.Endpoint)
}

func (e *SchemaViolation) Unwrap() error { return ErrSchemaViolation }
