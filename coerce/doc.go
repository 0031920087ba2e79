// Package coerce normalizes raw filter values before they reach the wire.
//
// Every function takes the name of the field being coerced so that errors
// can point at it, and every failure is a typed error matching one of the
// sentinels in errors.go:
//
//   - [ResolveChoice] and [ResolveChoices] map values or display names onto
//     the canonical values of a schema.ChoiceTable ([ErrInvalidChoice]).
//   - [ParseMembership], [CoerceInts] and [SerializeMembership] are the three
//     stages of the "in" filter pipeline ([ErrInvalidShape]).
//   - [ParseDateOrRelative] accepts absolute dates and the relative forms
//     "3 days ago", "-2m" and "past 1 year" ([ErrInvalidDate]).
//   - [Primitive] converts a scalar to a field's declared type
//     ([ErrInvalidValue]).
//
// Values decoded from JSON arrive as float64; whole numbers are treated as
// integers throughout.
package coerce
