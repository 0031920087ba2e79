package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is one page of list results.
type Page struct {
	Count         Count            `json:"count"`
	DocumentCount *int             `json:"document_count,omitempty"`
	Next          *string          `json:"next"`
	Previous      *string          `json:"previous"`
	Results       []map[string]any `json:"results"`
}

type pageJSON struct {
	Count         Count             `json:"count"`
	DocumentCount *int              `json:"document_count"`
	Next          *string           `json:"next"`
	Previous      *string           `json:"previous"`
	Results       *[]map[string]any `json:"results"`
}

// UnmarshalJSON requires a results key and rejects unknown keys.
func (p *Page) UnmarshalJSON(data []byte) error {
	var raw pageJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}
	if raw.Results == nil {
		return fmt.Errorf("%w: missing results", ErrMalformedPage)
	}
	*p = Page{
		Count:         raw.Count,
		DocumentCount: raw.DocumentCount,
		Next:          raw.Next,
		Previous:      raw.Previous,
		Results:       *raw.Results,
	}
	return nil
}

// Count is the count field of a page: a number, a URL that returns the
// number, or absent.
type Count struct {
	n   *int
	url string
}

// IntCount returns a numeric count.
func IntCount(n int) Count { return Count{n: &n} }

// URLCount returns a count served at url.
func URLCount(url string) Count { return Count{url: url} }

// Int returns the numeric count, if any.
func (c Count) Int() (int, bool) {
	if c.n == nil {
		return 0, false
	}
	return *c.n, true
}

// URL returns the count URL, if any.
func (c Count) URL() (string, bool) {
	return c.url, c.url != ""
}

// IsZero reports an absent count.
func (c Count) IsZero() bool { return c.n == nil && c.url == "" }

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Count{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = URLCount(s)
		return nil
	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		*c = IntCount(n)
		return nil
	}
}

func (c Count) MarshalJSON() ([]byte, error) {
	switch {
	case c.n != nil:
		return json.Marshal(*c.n)
	case c.url != "":
		return json.Marshal(c.url)
	default:
		return []byte("null"), nil
	}
}
