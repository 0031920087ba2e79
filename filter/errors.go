package filter

import (
	"errors"
	"fmt"
)

// ErrConflictingKey is matched by every ConflictError.
var ErrConflictingKey = errors.New("conflicting filter key")

// ConflictError reports a composite key that was assigned incompatible values.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("incompatible values for key %q", e.Key)
}

// Unwrap allows errors.Is(err, ErrConflictingKey).
func (e *ConflictError) Unwrap() error {
	return ErrConflictingKey
}
