// Package filter converts between nested filter expressions and the flat
// double-underscore query parameters understood by the CourtListener API.
//
// A filter expression is a map whose values are scalars, lists, lookup
// mappings or related sub-filters:
//
//	{"court": {"jurisdiction": "F"}, "date_filed": {"gte": "2020-01-01"}}
//
// [Flatten] collapses it into wire keys:
//
//	{"court__jurisdiction": "F", "date_filed__gte": "2020-01-01"}
//
// [Unflatten] is the inverse. It splits every key once on the first "__" and
// merges siblings that share a head, recursively. Assigning the same
// composite key twice, or assigning both a scalar and a mapping to it, is a
// [ConflictError] rather than a silent overwrite.
//
// # Round trips
//
// For expressions without dual-typed keys and without empty nested mappings,
// Unflatten(Flatten(x)) equals x and Flatten(Unflatten(y)) equals y.
//
// # Wire encoding
//
// [Query] is the flat form. [Query.Values] renders it as url.Values, with
// list leaves repeated under the same key.
package filter
