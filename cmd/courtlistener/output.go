package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("output format %q: want %s or %s", format, formatJSON, formatYAML)
	}
}

// write encodes v to w as indented JSON or as YAML.
func write(w io.Writer, format string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if format != formatYAML {
		_, err := w.Write(buf.Bytes())
		return err
	}
	out, err := yaml.JSONToYAML(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to encode as YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// parseFilters turns key=value arguments into a filter expression. Keys
// may use "__" lookups; values that look like JSON lists or objects are
// decoded, whole numbers become integers, and everything else stays a
// string for the validator to coerce.
func parseFilters(args []string) (map[string]any, error) {
	filters := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", arg)
		}
		if _, dup := filters[key]; dup {
			return nil, fmt.Errorf("filter %q given more than once", key)
		}
		value, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", key, err)
		}
		filters[key] = value
	}
	return filters, nil
}

func parseValue(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n, nil
	}
	return raw, nil
}
