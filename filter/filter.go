package filter

import (
	"slices"
	"strings"
)

// Separator joins a field to its lookup or to a related field on the wire.
const Separator = "__"

// Flatten collapses nested mappings into Separator-joined keys.
// Non-mapping values, lists included, are kept as leaves.
func Flatten(m map[string]any) Query {
	out := make(Query, len(m))
	flattenInto(out, "", m)
	return out
}

func flattenInto(out Query, prefix string, m map[string]any) {
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + Separator + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(out, full, nested)
			continue
		}
		out[full] = value
	}
}

// Unflatten expands Separator-joined keys into nested mappings.
func Unflatten(m map[string]any) (map[string]any, error) {
	return unflatten(m, "")
}

func unflatten(m map[string]any, path string) (map[string]any, error) {
	result := make(map[string]any, len(m))

	// Sorted so the reported conflict does not depend on map order.
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := m[key]
		head := key
		if before, after, found := strings.Cut(key, Separator); found {
			head = before
			value = map[string]any{after: value}
		}

		nested, isMap := value.(map[string]any)
		if !isMap {
			if _, exists := result[head]; exists {
				return nil, &ConflictError{Key: joinPath(path, head)}
			}
			result[head] = value
			continue
		}

		existing, exists := result[head]
		if !exists {
			existing = make(map[string]any, len(nested))
			result[head] = existing
		}
		target, ok := existing.(map[string]any)
		if !ok {
			return nil, &ConflictError{Key: joinPath(path, head)}
		}
		for subkey, subvalue := range nested {
			if _, dup := target[subkey]; dup {
				return nil, &ConflictError{Key: joinPath(path, head+Separator+subkey)}
			}
			target[subkey] = subvalue
		}
	}

	for key, value := range result {
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		expanded, err := unflatten(nested, joinPath(path, key))
		if err != nil {
			return nil, err
		}
		result[key] = expanded
	}
	return result, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + Separator + key
}
