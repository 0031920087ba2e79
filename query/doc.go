// Package query validates caller filters against an endpoint schema and
// produces the flat query sent on the wire.
//
// [Validator.Validate] unflattens its input, so "date_filed__gte" and
// {"date_filed": {"gte": ...}} are the same filter, then checks every key
// against the endpoint's declared fields and lookups and runs each value
// through the coercion pipeline of its filter kind:
//
//	literal          constant, always emitted
//	related          recursive sub-filter, or a scalar id
//	choice           coerce.ResolveChoice
//	multiple_choice  coerce.ResolveChoices
//	relative_date    coerce.ParseDateOrRelative
//	number_in        ParseMembership, CoerceInts, ResolveChoices, SerializeMembership
//	char_in          ParseMembership, ResolveChoices, SerializeMembership
//	char, number,    coerce.Primitive, or a mapping of lookups
//	boolean
//
// The result is flattened under each field's wire name and nil values are
// dropped. Any failure aborts the call and no partial query is returned.
// Errors name the dotted path of the offending field, e.g. "docket.court".
package query
