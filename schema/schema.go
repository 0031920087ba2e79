package schema

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Kind selects the coercion pipeline applied to a field's input.
type Kind string

const (
	KindChar           Kind = "char"
	KindNumber         Kind = "number"
	KindBoolean        Kind = "boolean"
	KindChoice         Kind = "choice"
	KindMultipleChoice Kind = "multiple_choice"
	KindNumberIn       Kind = "number_in"
	KindCharIn         Kind = "char_in"
	KindRelativeDate   Kind = "relative_date"
	KindRelated        Kind = "related"
	KindLiteral        Kind = "literal"
)

// Type is the primitive type of a field's value on the wire.
type Type string

const (
	TypeString   Type = "string"
	TypeInteger  Type = "integer"
	TypeBoolean  Type = "boolean"
	TypeDate     Type = "date"
	TypeDateTime Type = "datetime"
)

// Choice is one legal value of an enumerated field.
type Choice struct {
	Value       any    `json:"value"`
	DisplayName string `json:"display_name"`
}

// ChoiceTable is the ordered set of choices of one field. Values are unique.
type ChoiceTable []Choice

// Value reports whether v is one of the canonical values.
func (t ChoiceTable) Value(v any) (any, bool) {
	for _, c := range t {
		if c.Value == v {
			return c.Value, true
		}
	}
	return nil, false
}

// Display returns the value whose display name is exactly name.
func (t ChoiceTable) Display(name string) (any, bool) {
	for _, c := range t {
		if c.DisplayName == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Values returns the canonical values in table order.
func (t ChoiceTable) Values() []any {
	out := make([]any, len(t))
	for i, c := range t {
		out[i] = c.Value
	}
	return out
}

// String lists the table as `value (display name)` pairs.
func (t ChoiceTable) String() string {
	parts := make([]string, len(t))
	for i, c := range t {
		parts[i] = fmt.Sprintf("%v (%s)", c.Value, c.DisplayName)
	}
	return strings.Join(parts, ", ")
}

func (t ChoiceTable) normalize() (ChoiceTable, error) {
	seen := make(map[any]struct{}, len(t))
	out := make(ChoiceTable, 0, len(t))
	for _, c := range t {
		c.Value = NormalizeNumber(c.Value)
		switch c.Value.(type) {
		case string, int:
		default:
			return nil, fmt.Errorf("%w: choice value %v has type %T", ErrInvalidCatalog, c.Value, c.Value)
		}
		if _, dup := seen[c.Value]; dup {
			continue
		}
		seen[c.Value] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Field is one filterable parameter of an endpoint.
type Field struct {
	Name        string      `json:"name"`
	Alias       string      `json:"alias,omitempty"`
	Description string      `json:"description,omitempty"`
	Kind        Kind        `json:"filter"`
	Type        Type        `json:"type"`
	Lookups     []string    `json:"lookups,omitempty"`
	Choices     ChoiceTable `json:"choices,omitempty"`
	Related     string      `json:"related,omitempty"`
	Const       any         `json:"const,omitempty"`
}

// WireName is the query parameter name, the alias when one is declared.
func (f Field) WireName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// HasLookup reports whether the lookup operator is accepted.
func (f Field) HasLookup(lookup string) bool {
	return slices.Contains(f.Lookups, lookup)
}

// Membership reports whether the field accepts "in" lists.
func (f Field) Membership() bool {
	return f.Kind == KindNumberIn || f.Kind == KindCharIn
}

// Multiple reports whether the field accepts more than one value.
func (f Field) Multiple() bool {
	return f.Membership() || f.Kind == KindMultipleChoice
}

// Dispatch routes an endpoint to one of several variants by a field value.
type Dispatch struct {
	Field    string            `json:"field"`
	Default  string            `json:"default"`
	Variants map[string]string `json:"variants"`
}

// Endpoint is the declared filter schema of one API endpoint.
type Endpoint struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Dispatch    *Dispatch `json:"dispatch,omitempty"`
	Fields      []Field   `json:"fields"`

	byName map[string]int
}

// Field looks up a field by name or alias.
func (e *Endpoint) Field(name string) (Field, bool) {
	if e.byName == nil {
		for _, f := range e.Fields {
			if f.Name == name || (f.Alias != "" && f.Alias == name) {
				return f, true
			}
		}
		return Field{}, false
	}
	i, ok := e.byName[name]
	if !ok {
		return Field{}, false
	}
	return e.Fields[i], true
}

// FieldNames returns the declared field names in order.
func (e *Endpoint) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// IsSearch reports whether the endpoint is the search dispatcher or one of
// its typed variants.
func (e *Endpoint) IsSearch() bool {
	return e.ID == "search" || strings.HasSuffix(e.ID, "-search")
}

func (e *Endpoint) build() error {
	if e.ID == "" {
		return fmt.Errorf("%w: endpoint without id", ErrInvalidCatalog)
	}
	if e.Path == "" {
		e.Path = "/" + e.ID + "/"
	}
	if e.Name == "" {
		e.Name = e.ID
	}
	e.byName = make(map[string]int, len(e.Fields))
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: %s: field without name", ErrInvalidCatalog, e.ID)
		}
		if f.Type == "" {
			f.Type = TypeString
		}
		choices, err := f.Choices.normalize()
		if err != nil {
			return fmt.Errorf("%s.%s: %w", e.ID, f.Name, err)
		}
		f.Choices = choices
		f.Const = NormalizeNumber(f.Const)
		if _, dup := e.byName[f.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate field %s", ErrInvalidCatalog, e.ID, f.Name)
		}
		e.byName[f.Name] = i
		if f.Alias != "" {
			e.byName[f.Alias] = i
		}
	}
	return nil
}

// NormalizeNumber turns whole float64 values, as produced by encoding/json,
// into int. Other values are returned unchanged.
func NormalizeNumber(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int(n)
		}
	case int64:
		return int(n)
	case int32:
		return int(n)
	}
	return v
}
