package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/maypok86/otter"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/courtlistener/catalog"
	"github.com/jonwraymond/courtlistener/client"
	"github.com/jonwraymond/courtlistener/schema"
)

// Namespace is the namespace of the CourtListener tools.
const Namespace = "courtlistener"

const (
	searchDescription = "Search for case law, dockets, judges, and oral arguments."

	endpointUsage = "Use this for additional API endpoints which do not have a " +
		"dedicated MCP tool. These endpoints are distinct from the search " +
		"endpoint and often include more detailed metadata."

	callEndpointDescription   = "Call CourtListener API endpoint.\n\n" + endpointUsage
	endpointSchemaDescription = "Get the schema for a CourtListener API endpoint.\n\n" + endpointUsage
	findEndpointDescription   = "Find CourtListener API endpoints by keyword. " +
		"Returns endpoint IDs usable with `get_endpoint_schema` and `call_endpoint`."

	// maxChoiceTokens bounds the size of a "Valid choices" listing, at
	// roughly four bytes per token.
	maxChoiceTokens = 1000

	defaultFindLimit = 5
)

// droppedSchemaKeys are removed from every rendered property.
var droppedSchemaKeys = []string{"choices", "title", "related", "related_class_name", "default"}

// Service implements the CourtListener tools over a client.
type Service struct {
	client  *client.Client
	schemas *schema.Registry
	index   *catalog.Index
	docs    []catalog.Doc
	cache   otter.Cache[string, string]
}

// NewService returns the tools backed by c. A nil index disables
// find_endpoint.
func NewService(c *client.Client, idx *catalog.Index) (*Service, error) {
	cache, err := otter.MustBuilder[string, string](256).Build()
	if err != nil {
		return nil, err
	}
	reg := c.Registry()
	s := &Service{
		client:  c,
		schemas: reg,
		index:   idx,
		cache:   cache,
	}
	if idx != nil {
		s.docs = catalog.Docs(reg)
	}
	return s, nil
}

// Register adds the tools to r.
func (s *Service) Register(r *Registry) error {
	searchSchema, err := s.SearchInputSchema()
	if err != nil {
		return err
	}

	type entry struct {
		name, description string
		input             map[string]any
		handler           ToolHandler
		tags              []string
	}
	entries := []entry{
		{"search", searchDescription, searchSchema, s.search, []string{"search", "case-law", "opinions", "dockets"}},
		{"get_endpoint_schema", endpointSchemaDescription, s.endpointSchemaInput(), s.endpointSchema, []string{"schema", "endpoints"}},
		{"call_endpoint", callEndpointDescription, callEndpointInput(), s.callEndpoint, []string{"api", "endpoints"}},
	}
	if s.index != nil {
		entries = append(entries, entry{"find_endpoint", findEndpointDescription, findEndpointInput(), s.findEndpoint, []string{"discovery", "endpoints"}})
	}

	for _, e := range entries {
		if err := r.RegisterLocalFunc(e.name, e.description, e.input, e.handler,
			WithNamespace(Namespace),
			WithTags(e.tags...),
		); err != nil {
			return err
		}
	}
	return nil
}

// SearchInputSchema renders the union of the search variant filters. Each
// property notes the search types it applies to.
func (s *Service) SearchInputSchema() (map[string]any, error) {
	union, err := s.schemas.Endpoint("search")
	if err != nil {
		return nil, err
	}
	if union.Dispatch == nil {
		return nil, fmt.Errorf("%w: search endpoint has no dispatch field", schema.ErrInvalidCatalog)
	}
	variants := s.schemas.VariantsOf(union)

	props := map[string]any{
		"fields": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				map[string]any{"type": "null"},
			},
			"description": "Filter which fields are returned.",
		},
	}
	for _, f := range union.Fields {
		if f.Kind == schema.KindLiteral {
			continue
		}
		prop, err := property(f)
		if err != nil {
			return nil, err
		}
		if f.Name != union.Dispatch.Field {
			types := variants[f.Name]
			if types == nil {
				types = []string{}
			}
			desc, _ := prop["description"].(string)
			prop["description"] = strings.TrimSpace(desc + "\n\n" + fmt.Sprintf("Valid when type in: %v", types))
		}
		props[f.Name] = withChoices(prop, f.Choices)
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []any{union.Dispatch.Field},
	}, nil
}

// EndpointSchema renders the filters of one endpoint as an object schema.
// Rendered schemas are cached by id.
func (s *Service) EndpointSchema(id string) (string, error) {
	if text, ok := s.cache.Get(id); ok {
		return text, nil
	}
	e, err := s.schemas.Endpoint(id)
	if err != nil {
		return "", err
	}

	props := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		if f.Kind == schema.KindLiteral {
			continue
		}
		prop, err := property(f)
		if err != nil {
			return "", err
		}
		props[f.Name] = withChoices(prop, f.Choices)
	}
	text, err := indentJSON(map[string]any{"type": "object", "properties": props})
	if err != nil {
		return "", err
	}
	s.cache.Set(id, text)
	return text, nil
}

func (s *Service) endpointSchemaInput() map[string]any {
	var ids []string
	for _, e := range s.schemas.Endpoints() {
		if e.IsSearch() {
			continue
		}
		ids = append(ids, e.ID)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"endpoint_id": map[string]any{
				"type":        "string",
				"description": "Valid endpoint IDs:\n\t" + strings.Join(ids, "\n\t"),
			},
		},
		"required": []any{"endpoint_id"},
	}
}

func callEndpointInput() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"endpoint_id": map[string]any{
				"type":        "string",
				"description": "Endpoint ID to call (see `get_endpoint_schema` tool for valid endpoint IDs)",
			},
			"query": map[string]any{
				"type":                 "object",
				"description":          "Should match the endpoint schema returned by the `get_endpoint_schema` tool.",
				"additionalProperties": true,
			},
		},
		"required": []any{"endpoint_id"},
	}
}

func findEndpointInput() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Keywords describing the records you need, e.g. \"judge financial disclosures\".",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum number of endpoints to return. Defaults to %d.", defaultFindLimit),
			},
		},
		"required": []any{"query"},
	}
}

func (s *Service) search(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	args = maps.Clone(args)
	fields, err := stringList("fields", args["fields"])
	if err != nil {
		return nil, err
	}
	delete(args, "fields")

	res, err := s.client.Resource("search")
	if err != nil {
		return nil, err
	}
	it, err := res.List(args)
	if err != nil {
		return nil, err
	}
	results, err := it.Results(ctx)
	if err != nil {
		return nil, err
	}

	out := results
	missing := false
	if len(fields) > 0 {
		out = make([]map[string]any, len(results))
		for i, result := range results {
			projected := make(map[string]any, len(fields))
			for _, k := range fields {
				if v, ok := result[k]; ok {
					projected[k] = v
				} else {
					missing = true
				}
			}
			out[i] = projected
		}
	}

	text, err := indentJSON(nonNil(out))
	if err != nil {
		return nil, err
	}
	if missing {
		available := slices.Sorted(maps.Keys(results[0]))
		text = fmt.Sprintf("WARNING: Some fields in %v not found in results.\n\nAvailable fields: %s\n\n",
			fields, strings.Join(available, ", ")) + text
	}
	return TextResult(text), nil
}

func (s *Service) endpointSchema(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	id, _ := args["endpoint_id"].(string)
	text, err := s.EndpointSchema(id)
	if errors.Is(err, schema.ErrEndpointNotFound) {
		return ErrorResult(fmt.Sprintf("Endpoint '%s' not found", id)), nil
	}
	if err != nil {
		return nil, err
	}
	return TextResult(text), nil
}

func (s *Service) callEndpoint(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	id, _ := args["endpoint_id"].(string)
	res, err := s.client.Resource(id)
	if errors.Is(err, schema.ErrEndpointNotFound) {
		return ErrorResult(fmt.Sprintf("Endpoint '%s' not found", id)), nil
	}
	if err != nil {
		return nil, err
	}

	query := map[string]any{}
	switch q := args["query"].(type) {
	case nil:
	case map[string]any:
		query = q
	default:
		return nil, fmt.Errorf("%w: query must be an object, got %T", ErrInvalidArgument, q)
	}

	it, err := res.List(query)
	if err != nil {
		return nil, err
	}
	results, err := it.Results(ctx)
	if err != nil {
		return nil, err
	}
	text, err := indentJSON(nonNil(results))
	if err != nil {
		return nil, err
	}
	return TextResult(text), nil
}

type endpointHit struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
}

func (s *Service) findEndpoint(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	text, _ := args["query"].(string)
	limit := defaultFindLimit
	if v := schema.NormalizeNumber(args["limit"]); v != nil {
		n, ok := v.(int)
		if !ok || n < 1 {
			return nil, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidArgument)
		}
		limit = n
	}

	hits, err := s.index.Search(text, limit, s.docs)
	if err != nil {
		return nil, err
	}
	out := make([]endpointHit, len(hits))
	for i, h := range hits {
		out[i] = endpointHit(h)
	}
	rendered, err := indentJSON(out)
	if err != nil {
		return nil, err
	}
	return TextResult(rendered), nil
}

func property(f schema.Field) (map[string]any, error) {
	prop, err := schema.AsMap(f.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f.Name, err)
	}
	return prop, nil
}

// withChoices appends the choice listing to the description when it fits
// the token budget, then strips keys the model does not need.
func withChoices(prop map[string]any, choices schema.ChoiceTable) map[string]any {
	desc, _ := prop["description"].(string)
	if listing := choicesText(choices); listing != "" {
		desc = desc + "\n\n" + listing
	}
	if desc = strings.TrimSpace(desc); desc != "" {
		prop["description"] = desc
	}
	for _, k := range droppedSchemaKeys {
		delete(prop, k)
	}
	return prop
}

func choicesText(choices schema.ChoiceTable) string {
	if len(choices) == 0 {
		return ""
	}
	text, err := indentJSON(choices)
	if err != nil || estimateTokens(text) > maxChoiceTokens {
		return ""
	}
	return "Valid choices:\n\n" + text
}

func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func nonNil(results []map[string]any) []map[string]any {
	if results == nil {
		return []map[string]any{}
	}
	return results
}

func stringList(name string, v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidArgument, name)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidArgument, name)
	}
}
