package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jonwraymond/courtlistener/coerce"
	"github.com/jonwraymond/courtlistener/filter"
	"github.com/jonwraymond/courtlistener/schema"
)

const rangeLookup = "range"

// Validator checks filters against the endpoints of a registry.
type Validator struct {
	Registry *schema.Registry
}

// New returns a validator over r. A nil registry means schema.Default().
func New(r *schema.Registry) *Validator {
	return &Validator{Registry: r}
}

func (v *Validator) registry() *schema.Registry {
	if v == nil || v.Registry == nil {
		return schema.Default()
	}
	return v.Registry
}

// Validate returns the wire query for filters on the endpoint endpointID.
func (v *Validator) Validate(endpointID string, filters map[string]any) (filter.Query, error) {
	_, q, err := v.Resolve(endpointID, filters)
	return q, err
}

// Resolve is Validate that also returns the endpoint the filters were
// checked against. For dispatch endpoints this is the selected variant.
func (v *Validator) Resolve(endpointID string, filters map[string]any) (*schema.Endpoint, filter.Query, error) {
	reg := v.registry()
	e, err := reg.Endpoint(endpointID)
	if err != nil {
		return nil, nil, err
	}

	nested, err := filter.Unflatten(filters)
	if err != nil {
		return nil, nil, err
	}

	e, nested, err = v.variant(e, nested)
	if err != nil {
		return nil, nil, err
	}

	out, err := v.endpoint(e, nested, "")
	if err != nil {
		return nil, nil, err
	}

	q := filter.Flatten(out)
	for k, val := range q {
		if val == nil {
			delete(q, k)
		}
	}
	return e, q, nil
}

// variant selects the dispatch target of e from the filters' dispatch
// field. The canonical dispatch key replaces the caller's value.
func (v *Validator) variant(e *schema.Endpoint, filters map[string]any) (*schema.Endpoint, map[string]any, error) {
	if e.Dispatch == nil {
		return e, filters, nil
	}
	f, ok := e.Field(e.Dispatch.Field)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s dispatches on undeclared field %q", schema.ErrInvalidCatalog, e.ID, e.Dispatch.Field)
	}

	key := filters[f.Name]
	if key == nil && f.Alias != "" {
		key = filters[f.Alias]
	}
	var selected string
	if key != nil {
		resolved := key
		if len(f.Choices) > 0 {
			var err error
			resolved, err = coerce.ResolveChoice(f.Name, key, f.Choices)
			if err != nil {
				return nil, nil, err
			}
		}
		s, ok := resolved.(string)
		if !ok {
			return nil, nil, &coerce.ValueError{Field: f.Name, Value: key, Expected: "a string"}
		}
		selected = s
	}

	target, err := v.registry().Variant(e, selected)
	if err != nil {
		return nil, nil, err
	}
	if key != nil {
		filters = maps.Clone(filters)
		delete(filters, f.Alias)
		filters[f.Name] = selected
	}
	return target, filters, nil
}

// endpoint validates a nested filter map against e. The result is keyed by
// wire name and still nested.
func (v *Validator) endpoint(e *schema.Endpoint, filters map[string]any, path string) (map[string]any, error) {
	out := make(map[string]any, len(filters))
	seen := make(map[string]string, len(filters))

	for _, key := range slices.Sorted(maps.Keys(filters)) {
		fieldPath := joinPath(path, key)
		f, ok := e.Field(key)
		if !ok {
			return nil, &SchemaViolation{Endpoint: e.ID, Path: fieldPath}
		}
		if prev, dup := seen[f.Name]; dup {
			return nil, &SchemaViolation{
				Endpoint: e.ID,
				Path:     fieldPath,
				Reason:   fmt.Sprintf("same field as %q", joinPath(path, prev)),
			}
		}
		seen[f.Name] = key

		value, err := v.field(e, f, filters[key], fieldPath)
		if err != nil {
			return nil, err
		}
		if value != nil {
			out[f.WireName()] = value
		}
	}

	for _, f := range e.Fields {
		if f.Kind == schema.KindLiteral {
			out[f.WireName()] = f.Const
		}
	}
	return out, nil
}

func (v *Validator) field(e *schema.Endpoint, f schema.Field, value any, path string) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch f.Kind {
	case schema.KindLiteral:
		return literal(f, value, path)
	case schema.KindRelated:
		return v.related(f, value, path)
	case schema.KindChoice:
		if err := scalarOnly(value, path, "a single choice"); err != nil {
			return nil, err
		}
		return coerce.ResolveChoice(path, value, f.Choices)
	case schema.KindMultipleChoice:
		if _, isMap := value.(map[string]any); isMap {
			return nil, &coerce.ValueError{Field: path, Value: value, Expected: "a choice or a list of choices"}
		}
		return coerce.ResolveChoices(path, value, f.Choices)
	case schema.KindRelativeDate:
		return coerce.ParseDateOrRelative(path, value)
	case schema.KindNumberIn, schema.KindCharIn:
		return membership(f, value, path)
	default:
		if lookups, ok := value.(map[string]any); ok {
			return lookupMap(e, f, lookups, path)
		}
		if err := scalarOnly(value, path, "a single "+string(f.Type)); err != nil {
			return nil, err
		}
		return coerce.Primitive(path, value, f.Type)
	}
}

func literal(f schema.Field, value any, path string) (any, error) {
	if schema.NormalizeNumber(value) != f.Const {
		return nil, &coerce.ValueError{Field: path, Value: value, Expected: fmt.Sprintf("%#v", f.Const)}
	}
	return f.Const, nil
}

func (v *Validator) related(f schema.Field, value any, path string) (any, error) {
	if sub, ok := value.(map[string]any); ok {
		target, err := v.registry().Endpoint(f.Related)
		if err != nil {
			return nil, err
		}
		out, err := v.endpoint(target, sub, path)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	}
	if err := scalarOnly(value, path, "a related id or a sub-filter"); err != nil {
		return nil, err
	}
	return coerce.Primitive(path, value, f.Type)
}

// membership runs pre-parse, integer coercion, choice resolution and
// serialization, in that order.
func membership(f schema.Field, value any, path string) (any, error) {
	members, err := coerce.ParseMembership(path, value)
	if err != nil {
		return nil, err
	}
	if f.Type == schema.TypeInteger {
		members = coerce.CoerceInts(members)
	}
	if len(members) == 0 {
		return nil, nil
	}

	var resolved any = members
	if len(f.Choices) > 0 {
		resolved, err = coerce.ResolveChoices(path, members, f.Choices)
		if err != nil {
			return nil, err
		}
	} else {
		for _, m := range members {
			if _, err := coerce.Primitive(path, m, f.Type); err != nil {
				return nil, err
			}
		}
	}
	return coerce.SerializeMembership(resolved), nil
}

func lookupMap(e *schema.Endpoint, f schema.Field, lookups map[string]any, path string) (any, error) {
	out := make(map[string]any, len(lookups))
	for _, lookup := range slices.Sorted(maps.Keys(lookups)) {
		lookupPath := path + "." + lookup
		if !f.HasLookup(lookup) {
			return nil, &SchemaViolation{Endpoint: e.ID, Path: lookupPath, Reason: "unknown lookup"}
		}
		raw := lookups[lookup]
		if raw == nil {
			continue
		}

		if lookup == rangeLookup {
			value, err := rangeValue(f, raw, lookupPath)
			if err != nil {
				return nil, err
			}
			out[lookup] = value
			continue
		}

		if err := scalarOnly(raw, lookupPath, "a single "+string(f.LookupType(lookup))); err != nil {
			return nil, err
		}
		value, err := coerce.Primitive(lookupPath, raw, f.LookupType(lookup))
		if err != nil {
			return nil, err
		}
		out[lookup] = value
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// rangeValue accepts [low, high] or "low,high" and returns "low,high".
func rangeValue(f schema.Field, raw any, path string) (string, error) {
	var bounds []any
	switch t := raw.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			bounds = append(bounds, strings.TrimSpace(part))
		}
	default:
		items, ok := coerce.List(raw)
		if !ok {
			return "", &coerce.ValueError{Field: path, Value: raw, Expected: `a two-element list or "low,high"`}
		}
		bounds = items
	}
	if len(bounds) != 2 {
		return "", &coerce.ValueError{Field: path, Value: raw, Expected: `a two-element list or "low,high"`}
	}

	parts := make([]string, 2)
	for i, b := range bounds {
		value, err := coerce.Primitive(path, b, f.Type)
		if err != nil {
			return "", err
		}
		parts[i] = filter.FormatValue(value)
	}
	return strings.Join(parts, ","), nil
}

func scalarOnly(value any, path, expected string) error {
	if _, isList := coerce.List(value); isList {
		return &coerce.ValueError{Field: path, Value: value, Expected: expected}
	}
	if _, isMap := value.(map[string]any); isMap {
		return &coerce.ValueError{Field: path, Value: value, Expected: expected}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
