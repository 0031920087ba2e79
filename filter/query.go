package filter

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"
)

// Query is a flat mapping from wire key to primitive value.
type Query map[string]any

// Values encodes the query for a URL. Nil values are skipped and list
// values repeat their key.
func (q Query) Values() url.Values {
	values := make(url.Values, len(q))
	for key, value := range q {
		switch v := value.(type) {
		case nil:
		case []any:
			for _, item := range v {
				values.Add(key, FormatValue(item))
			}
		case []string:
			for _, item := range v {
				values.Add(key, item)
			}
		case []int:
			for _, item := range v {
				values.Add(key, strconv.Itoa(item))
			}
		default:
			values.Set(key, FormatValue(v))
		}
	}
	return values
}

// Encode returns the URL-encoded query string, sorted by key.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Clone returns a shallow copy of q.
func (q Query) Clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// FormatValue renders a primitive the way the API expects it in a query string.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
