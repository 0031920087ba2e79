package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
)

//go:embed catalog.json
var embeddedCatalog []byte

// Registry is an immutable table of endpoints keyed by id.
type Registry struct {
	endpoints map[string]*Endpoint
	ids       []string
}

// NewRegistry validates the endpoints and indexes them by id. Related
// targets and dispatch variants must refer to endpoints in the same set.
func NewRegistry(endpoints ...*Endpoint) (*Registry, error) {
	r := &Registry{endpoints: make(map[string]*Endpoint, len(endpoints))}
	for _, e := range endpoints {
		if e == nil {
			continue
		}
		if err := e.build(); err != nil {
			return nil, err
		}
		if _, dup := r.endpoints[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate endpoint %s", ErrInvalidCatalog, e.ID)
		}
		r.endpoints[e.ID] = e
		r.ids = append(r.ids, e.ID)
	}
	slices.Sort(r.ids)

	for _, e := range r.endpoints {
		for _, f := range e.Fields {
			if f.Kind == KindRelated {
				if _, ok := r.endpoints[f.Related]; !ok {
					return nil, fmt.Errorf("%w: %s.%s relates to unknown endpoint %q", ErrInvalidCatalog, e.ID, f.Name, f.Related)
				}
			}
		}
		if e.Dispatch != nil {
			if _, ok := e.Field(e.Dispatch.Field); !ok {
				return nil, fmt.Errorf("%w: %s dispatches on unknown field %q", ErrInvalidCatalog, e.ID, e.Dispatch.Field)
			}
			for key, variant := range e.Dispatch.Variants {
				if _, ok := r.endpoints[variant]; !ok {
					return nil, fmt.Errorf("%w: %s variant %q refers to unknown endpoint %q", ErrInvalidCatalog, e.ID, key, variant)
				}
			}
			if _, ok := e.Dispatch.Variants[e.Dispatch.Default]; !ok {
				return nil, fmt.Errorf("%w: %s default variant %q is not declared", ErrInvalidCatalog, e.ID, e.Dispatch.Default)
			}
		}
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(endpoints ...*Endpoint) *Registry {
	r, err := NewRegistry(endpoints...)
	if err != nil {
		panic(err)
	}
	return r
}

// Endpoint returns the endpoint with the given id.
func (r *Registry) Endpoint(id string) (*Endpoint, error) {
	e, ok := r.endpoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEndpointNotFound, id)
	}
	return e, nil
}

// Has reports whether an endpoint id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.endpoints[id]
	return ok
}

// IDs returns every endpoint id in sorted order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

// Endpoints returns every endpoint sorted by id.
func (r *Registry) Endpoints() []*Endpoint {
	out := make([]*Endpoint, len(r.ids))
	for i, id := range r.ids {
		out[i] = r.endpoints[id]
	}
	return out
}

// Variant resolves a dispatch endpoint to the variant selected by key. An
// empty key selects the default variant.
func (r *Registry) Variant(e *Endpoint, key string) (*Endpoint, error) {
	if e.Dispatch == nil {
		return e, nil
	}
	if key == "" {
		key = e.Dispatch.Default
	}
	id, ok := e.Dispatch.Variants[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no variant %q", ErrEndpointNotFound, e.ID, key)
	}
	return r.Endpoint(id)
}

// VariantsOf returns, for each field name of a dispatch endpoint, the
// dispatch keys whose variant declares that field. Keys follow the order
// of the dispatch field's choice table.
func (r *Registry) VariantsOf(e *Endpoint) map[string][]string {
	if e.Dispatch == nil {
		return nil
	}
	keys := make([]string, 0, len(e.Dispatch.Variants))
	if f, ok := e.Field(e.Dispatch.Field); ok && len(f.Choices) > 0 {
		for _, c := range f.Choices {
			if s, ok := c.Value.(string); ok {
				if _, declared := e.Dispatch.Variants[s]; declared {
					keys = append(keys, s)
				}
			}
		}
	}
	if len(keys) != len(e.Dispatch.Variants) {
		keys = keys[:0]
		for k := range e.Dispatch.Variants {
			keys = append(keys, k)
		}
		slices.Sort(keys)
	}

	out := make(map[string][]string)
	for _, key := range keys {
		variant, err := r.Endpoint(e.Dispatch.Variants[key])
		if err != nil {
			continue
		}
		for _, f := range variant.Fields {
			if f.Name == e.Dispatch.Field {
				continue
			}
			out[f.Name] = append(out[f.Name], key)
		}
	}
	return out
}

type catalogFile struct {
	Endpoints []*Endpoint `json:"endpoints"`
}

// Load reads a JSON catalog.
func Load(r io.Reader) (*Registry, error) {
	var file catalogFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewRegistry(file.Endpoints...)
}

// LoadFile reads a JSON catalog from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Write encodes the registry as an indented JSON catalog.
func (r *Registry) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(catalogFile{Endpoints: r.Endpoints()})
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := Load(bytes.NewReader(embeddedCatalog))
	if err != nil {
		panic(fmt.Sprintf("schema: embedded catalog: %v", err))
	}
	return r
})

// Default returns the registry built from the embedded catalog.
func Default() *Registry {
	return defaultRegistry()
}
