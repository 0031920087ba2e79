package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Options is the body of a DRF OPTIONS response for one endpoint.
type Options struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Actions     OptionsActions `json:"actions"`
	Filters     OptionsFilters `json:"filters"`
}

// OptionsActions holds the serializer fields of the POST action.
type OptionsActions struct {
	Post map[string]OptionsField `json:"POST"`
}

// OptionsField is a serializer field description.
type OptionsField struct {
	Type     string      `json:"type"`
	HelpText string      `json:"help_text"`
	Choices  ChoiceTable `json:"choices"`
}

// OptionsFilter is a django-filter description.
type OptionsFilter struct {
	Name    string          `json:"-"`
	Type    string          `json:"type"`
	Lookups json.RawMessage `json:"lookup_types"`
	Choices ChoiceTable     `json:"choices"`
}

// OptionsFilters keeps filters in response order.
type OptionsFilters []OptionsFilter

// UnmarshalJSON decodes the filters object without losing key order.
func (fs *OptionsFilters) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("filters: expected object, got %v", tok)
	}
	var out OptionsFilters
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var f OptionsFilter
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("filters.%s: %w", name, err)
		}
		f.Name = name
		out = append(out, f)
	}
	*fs = out
	return nil
}

// relatedAliases maps related endpoint names, as the API spells them in
// lookup_types, onto endpoint ids.
var relatedAliases = map[string]string{
	"opinion-clusters":                 "clusters",
	"audio-files":                      "audio",
	"user-tags":                        "tags",
	"american-bar-association-ratings": "aba-ratings",
}

// lookupList returns the lookup operators minus exact and in, sorted.
func (f OptionsFilter) lookupList() []string {
	var lookups []string
	if err := json.Unmarshal(f.Lookups, &lookups); err != nil {
		return nil
	}
	out := make([]string, 0, len(lookups))
	for _, l := range lookups {
		if l == "exact" || l == "in" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// relatedID extracts the related endpoint from a lookup_types string such as
// "See available filters for 'Opinion Clusters'".
func (f OptionsFilter) relatedID() string {
	if f.Type != "RelatedFilter" {
		return ""
	}
	var text string
	if err := json.Unmarshal(f.Lookups, &text); err != nil {
		return ""
	}
	parts := strings.Split(text, "'")
	if len(parts) < 2 {
		return ""
	}
	id := strings.ToLower(strings.ReplaceAll(parts[1], " ", "-"))
	if alias, ok := relatedAliases[id]; ok {
		return alias
	}
	return id
}

// FromOptions converts one OPTIONS response into an endpoint. Related id
// types are provisional until resolved by ConvertOptions.
func FromOptions(id string, opts Options) *Endpoint {
	name := opts.Name
	if name == "" {
		name = titleCase(id)
	}
	description := opts.Description
	if description == "" {
		description = name + " Endpoint"
	}

	e := &Endpoint{
		ID:          id,
		Path:        "/" + id + "/",
		Name:        name,
		Description: description,
	}
	for _, flt := range opts.Filters {
		field := opts.Actions.Post[flt.Name]
		f, ok := fieldFromOptions(flt, field)
		if !ok {
			continue
		}
		e.Fields = append(e.Fields, f)
	}
	return e
}

func fieldFromOptions(flt OptionsFilter, field OptionsField) (Field, bool) {
	lookups := flt.lookupList()
	choices := flt.Choices
	if len(choices) == 0 && (flt.Type == "NumberInFilter" || flt.Type == "CharInFilter") {
		choices = field.Choices
	}
	f := Field{
		Name:        flt.Name,
		Description: field.HelpText,
		Choices:     choices,
	}

	switch flt.Type {
	case "RelatedFilter":
		f.Kind, f.Type, f.Related = KindRelated, TypeInteger, flt.relatedID()
		if f.Related == "" {
			return Field{}, false
		}
	case "CharFilter":
		f.Kind, f.Type, f.Lookups = KindChar, TypeString, lookups
	case "NumberRangeFilter", "ModelChoiceFilter":
		f.Kind, f.Type, f.Lookups = KindNumber, TypeInteger, lookups
	case "BooleanFilter":
		f.Kind, f.Type, f.Lookups = KindBoolean, TypeBoolean, lookups
	case "NumberInFilter":
		f.Kind, f.Type = KindNumberIn, TypeInteger
	case "CharInFilter":
		f.Kind, f.Type = KindCharIn, TypeString
	case "ChoiceFilter", "MultipleChoiceFilter":
		if len(choices) == 0 {
			return Field{}, false
		}
		f.Kind = KindChoice
		if flt.Type == "MultipleChoiceFilter" {
			f.Kind = KindMultipleChoice
		}
		f.Type = choiceType(choices)
	case "NumberFilter":
		f.Kind, f.Lookups = KindNumber, lookups
		switch {
		case field.Type == "datetime" || slices.Contains(lookups, "hour"):
			f.Type = TypeDateTime
		case field.Type == "date" || slices.Contains(lookups, "year"):
			f.Type = TypeDate
		case field.Type == "integer" || field.Type == "field" || field.Type == "":
			f.Type = TypeInteger
		default:
			return Field{}, false
		}
	case "RelativeDateFilter":
		f.Kind, f.Type = KindRelativeDate, TypeDate
	default:
		return Field{}, false
	}
	if f.Kind != KindChoice && f.Kind != KindMultipleChoice && !f.Membership() {
		f.Choices = nil
	}
	return f, true
}

func choiceType(choices ChoiceTable) Type {
	if len(choices) > 0 {
		if _, ok := NormalizeNumber(choices[0].Value).(int); ok {
			return TypeInteger
		}
	}
	return TypeString
}

// ConvertOptions converts a set of OPTIONS responses keyed by endpoint id.
// Related fields take the id type of their target; a related field whose
// target is not in the set becomes a plain equality filter on the id. The
// extra endpoints are added as they are, and may be targets too.
func ConvertOptions(options map[string]Options, extra ...*Endpoint) []*Endpoint {
	ids := make([]string, 0, len(options))
	for id := range options {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	byID := make(map[string]*Endpoint, len(ids)+len(extra))
	out := make([]*Endpoint, 0, len(ids)+len(extra))
	for _, id := range ids {
		e := FromOptions(id, options[id])
		byID[id] = e
		out = append(out, e)
	}
	for _, e := range extra {
		if _, dup := byID[e.ID]; dup {
			continue
		}
		byID[e.ID] = e
		out = append(out, e)
	}

	for _, e := range out {
		for i := range e.Fields {
			f := &e.Fields[i]
			if f.Kind != KindRelated {
				continue
			}
			target, ok := byID[f.Related]
			if !ok {
				f.Kind, f.Related = KindNumber, ""
				continue
			}
			for _, tf := range target.Fields {
				if tf.Name == "id" {
					f.Type = tf.Type
					break
				}
			}
			if f.Type != TypeString {
				f.Type = TypeInteger
			}
		}
	}
	return out
}

func titleCase(id string) string {
	r := strings.NewReplacer("-", " ", "_", " ", "/", " ")
	words := strings.Fields(r.Replace(id))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
