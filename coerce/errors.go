package coerce

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/courtlistener/schema"
)

var (
	ErrInvalidChoice = errors.New("invalid choice")
	ErrInvalidShape  = errors.New("invalid shape")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidValue  = errors.New("invalid value")
)

// ChoiceError reports a value outside a field's choice table.
type ChoiceError struct {
	Field   string
	Value   any
	Choices schema.ChoiceTable
}

func (e *ChoiceError) Error() string {
	return fmt.Sprintf("%s: invalid choice %#v, must be one of: %s", e.Field, e.Value, e.Choices)
}

func (e *ChoiceError) Unwrap() error { return ErrInvalidChoice }

// ShapeError reports a membership value that is not a scalar, a
// comma-separated string, a list or an {"in": ...} mapping.
type ShapeError struct {
	Field string
	Value any
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf(`%s: invalid value %#v, expected a scalar, a comma-separated string, a list or {"in": "a,b"}`, e.Field, e.Value)
}

func (e *ShapeError) Unwrap() error { return ErrInvalidShape }

// DateError reports a value that is neither a date nor a relative date.
type DateError struct {
	Field string
	Value any
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %#v is not a valid value. Expected a date or a pattern like '3 days ago', '-2m', 'past 1 year'.", e.Field, e.Value)
}

func (e *DateError) Unwrap() error { return ErrInvalidDate }

// ValueError reports a value that cannot be converted to the declared type.
type ValueError struct {
	Field    string
	Value    any
	Expected string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: invalid value %#v, expected %s", e.Field, e.Value, e.Expected)
}

func (e *ValueError) Unwrap() error { return ErrInvalidValue }
