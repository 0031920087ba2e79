package coerce

import (
	"github.com/jonwraymond/courtlistener/schema"
)

// ResolveChoice returns the canonical value for v. A value match wins over
// a display-name match. Nil means no filter and is returned as nil.
func ResolveChoice(field string, v any, table schema.ChoiceTable) (any, error) {
	v = schema.NormalizeNumber(v)
	if v == nil {
		return nil, nil
	}
	if value, ok := table.Value(v); ok {
		return value, nil
	}
	if name, ok := v.(string); ok {
		if value, ok := table.Display(name); ok {
			return value, nil
		}
	}
	return nil, &ChoiceError{Field: field, Value: v, Choices: table}
}

// ResolveChoices resolves a scalar or a list element by element, stopping at
// the first invalid entry. One remaining value is returned bare, more as a
// []any.
func ResolveChoices(field string, v any, table schema.ChoiceTable) (any, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := List(v)
	if !ok {
		items = []any{v}
	}

	resolved := make([]any, 0, len(items))
	for _, item := range items {
		value, err := ResolveChoice(field, item, table)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		resolved = append(resolved, value)
	}

	switch len(resolved) {
	case 0:
		return nil, nil
	case 1:
		return resolved[0], nil
	default:
		return resolved, nil
	}
}

// List converts the slice types produced by callers and by encoding/json
// into []any. It reports false for non-slices.
func List(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
