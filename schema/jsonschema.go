package schema

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// intLookups take an integer whatever the field type.
var intLookups = map[string]bool{
	"day": true, "month": true, "year": true, "week_day": true,
	"hour": true, "minute": true, "second": true,
}

// LookupType returns the primitive type a lookup operator expects on f.
func (f Field) LookupType(lookup string) Type {
	switch {
	case lookup == "isnull":
		return TypeBoolean
	case intLookups[lookup]:
		return TypeInteger
	default:
		return f.Type
	}
}

func primitiveSchema(t Type) *jsonschema.Schema {
	switch t {
	case TypeInteger:
		return &jsonschema.Schema{Type: "integer"}
	case TypeBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case TypeDate:
		return &jsonschema.Schema{Type: "string", Format: "date"}
	case TypeDateTime:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

// JSONSchema renders the field as a JSON Schema property.
func (f Field) JSONSchema() *jsonschema.Schema {
	base := primitiveSchema(f.Type)

	var s *jsonschema.Schema
	switch f.Kind {
	case KindLiteral:
		c := f.Const
		s = &jsonschema.Schema{Const: &c}
	case KindRelated:
		s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
			{Type: "object", Description: "Filters on the related " + f.Related + " endpoint."},
			base,
		}}
	case KindMultipleChoice:
		s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
			base,
			{Type: "array", Items: primitiveSchema(f.Type)},
		}}
	case KindNumberIn, KindCharIn:
		s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
			base,
			{Type: "array", Items: primitiveSchema(f.Type)},
			{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"in": {Type: "string"}},
				Required:   []string{"in"},
			},
		}}
	case KindRelativeDate:
		s = &jsonschema.Schema{Type: "string"}
	default:
		s = base
		if len(f.Lookups) > 0 {
			props := make(map[string]*jsonschema.Schema, len(f.Lookups))
			for _, lookup := range f.Lookups {
				if lookup == "range" {
					props[lookup] = &jsonschema.Schema{
						Type:  "array",
						Items: primitiveSchema(f.Type),
					}
					continue
				}
				props[lookup] = primitiveSchema(f.LookupType(lookup))
			}
			s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
				base,
				{Type: "object", Properties: props},
			}}
		}
	}
	s.Description = f.Description
	return s
}

// JSONSchema renders the endpoint as an object schema. Literal fields are
// left out because their value is fixed.
func (e *Endpoint) JSONSchema() *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(e.Fields))
	for _, f := range e.Fields {
		if f.Kind == KindLiteral {
			continue
		}
		props[f.Name] = f.JSONSchema()
	}
	return &jsonschema.Schema{
		Type:        "object",
		Description: e.Description,
		Properties:  props,
	}
}

// AsMap converts a schema into the generic map form used by tool
// declarations.
func AsMap(s *jsonschema.Schema) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
