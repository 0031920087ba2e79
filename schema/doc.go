// Package schema describes the filterable fields of every CourtListener
// endpoint.
//
// An [Endpoint] is an id, a URL path and an ordered list of [Field]s. Each
// field declares its filter [Kind] (how input is coerced), its primitive
// [Type], the lookup operators it accepts, an optional [ChoiceTable] and, for
// related filters, the id of the related endpoint whose fields may be used
// in a sub-filter.
//
// The [Registry] is the init-once table of endpoints. [Default] returns the
// registry built from the catalog embedded in this package; [Load] and
// [LoadFile] read a catalog written by [Registry.Write], for example one
// refreshed from a live OPTIONS introspection with [ConvertOptions].
//
// # Search dispatch
//
// The "search" endpoint carries a [Dispatch]: its "type" field selects one
// of the typed search variants (opinion-search, recap-search, ...), all of
// which share the /search/ path.
//
// # JSON Schema
//
// [Field.JSONSchema] and [Endpoint.JSONSchema] render the declarations with
// github.com/google/jsonschema-go for use as tool input schemas.
package schema
