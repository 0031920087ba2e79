package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/courtlistener/filter"
	"github.com/jonwraymond/courtlistener/schema"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// Primitive converts a scalar to the declared type. Dates and datetimes are
// returned as strings in their wire form.
func Primitive(field string, v any, t schema.Type) (any, error) {
	v = schema.NormalizeNumber(v)
	if v == nil {
		return nil, nil
	}

	switch t {
	case schema.TypeInteger:
		switch n := v.(type) {
		case int:
			return n, nil
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i, nil
			}
		}
		return nil, &ValueError{Field: field, Value: v, Expected: "an integer"}

	case schema.TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
				return parsed, nil
			}
		case int:
			if b == 0 || b == 1 {
				return b == 1, nil
			}
		}
		return nil, &ValueError{Field: field, Value: v, Expected: "a boolean"}

	case schema.TypeDate:
		switch d := v.(type) {
		case time.Time:
			return d.Format(DateLayout), nil
		case string:
			if parsed, err := time.Parse(DateLayout, d); err == nil {
				return parsed.Format(DateLayout), nil
			}
		}
		return nil, &ValueError{Field: field, Value: v, Expected: "a date (YYYY-MM-DD)"}

	case schema.TypeDateTime:
		switch d := v.(type) {
		case time.Time:
			return d.Format(time.RFC3339), nil
		case string:
			for _, layout := range dateTimeLayouts {
				if _, err := time.Parse(layout, d); err == nil {
					return d, nil
				}
			}
		}
		return nil, &ValueError{Field: field, Value: v, Expected: "a datetime (RFC 3339)"}

	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case int, float64:
			return filter.FormatValue(s), nil
		}
		return nil, &ValueError{Field: field, Value: v, Expected: "a string"}
	}
}
