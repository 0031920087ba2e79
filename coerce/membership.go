package coerce

import (
	"strconv"
	"strings"

	"github.com/jonwraymond/courtlistener/filter"
	"github.com/jonwraymond/courtlistener/schema"
)

// MembershipLookup is the lookup key of a serialized membership filter.
const MembershipLookup = "in"

// ParseMembership accepts a scalar, a comma-separated string, a list of
// scalars or {"in": "a,b"} and returns the member list.
func ParseMembership(field string, v any) ([]any, error) {
	if m, ok := v.(map[string]any); ok {
		inner, found := m[MembershipLookup]
		if !found || len(m) != 1 {
			return nil, &ShapeError{Field: field, Value: v}
		}
		v = inner
	}

	switch t := schema.NormalizeNumber(v).(type) {
	case nil:
		return nil, nil
	case string:
		return splitMembers(t), nil
	case int:
		return []any{t}, nil
	}

	items, ok := List(v)
	if !ok {
		return nil, &ShapeError{Field: field, Value: v}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		switch member := schema.NormalizeNumber(item).(type) {
		case string:
			out = append(out, strings.TrimSpace(member))
		case int:
			out = append(out, member)
		default:
			return nil, &ShapeError{Field: field, Value: v}
		}
	}
	return out, nil
}

func splitMembers(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CoerceInts converts members that parse as base-10 integers. Anything else
// is kept as it was.
func CoerceInts(members []any) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m
		if s, ok := m.(string); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				out[i] = n
			}
		}
	}
	return out
}

// SerializeMembership renders a list as {"in": "v1,v2"}. Scalars pass
// through as equality filters.
func SerializeMembership(v any) any {
	items, ok := List(v)
	if !ok {
		return v
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = filter.FormatValue(item)
	}
	return map[string]any{MembershipLookup: strings.Join(parts, ",")}
}
