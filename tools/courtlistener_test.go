package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/courtlistener/catalog"
	"github.com/jonwraymond/courtlistener/client"
)

const apiPrefix = "/api/rest/v4"

type fakeAPI struct {
	srv *httptest.Server

	mu   sync.Mutex
	reqs []*http.Request
}

func newFakeAPI(t *testing.T, results map[string][]map[string]any) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.reqs = append(api.reqs, r.Clone(context.Background()))
		api.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, apiPrefix)
		records, ok := results[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":    len(records),
			"next":     nil,
			"previous": nil,
			"results":  records,
		})
	}))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reqs)
}

func (a *fakeAPI) last() *http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reqs[len(a.reqs)-1]
}

func newTestRegistry(t *testing.T, api *fakeAPI) *Registry {
	t.Helper()
	c, err := client.New(client.Options{Token: "secret", BaseURL: api.srv.URL + apiPrefix})
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	idx := catalog.New(catalog.Config{})
	t.Cleanup(func() { _ = idx.Close() })

	svc, err := NewService(c, idx)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	reg := New(Config{ServerInfo: ServerInfo{Name: "courtlistener", Version: "test"}})
	if err := svc.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return reg
}

func opinions() []map[string]any {
	return []map[string]any{
		{"caseName": "Roe v. Wade", "court": "scotus", "dateFiled": "1973-01-22"},
		{"caseName": "Doe v. Bolton", "court": "scotus", "dateFiled": "1973-01-22"},
	}
}

func TestService_RegistersTools(t *testing.T) {
	reg := newTestRegistry(t, newFakeAPI(t, nil))

	want := []string{"search", "get_endpoint_schema", "call_endpoint", "find_endpoint"}
	tools := reg.ListAll()
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for i, tool := range tools {
		if tool.Name != want[i] {
			t.Errorf("tool %d = %s, want %s", i, tool.Name, want[i])
		}
		if tool.Namespace != Namespace {
			t.Errorf("tool %s namespace = %q", tool.Name, tool.Namespace)
		}
	}

	call, _ := reg.GetTool("call_endpoint")
	if !strings.HasPrefix(call.Description, "Call CourtListener API endpoint.\n\nUse this for additional API endpoints") {
		t.Errorf("unexpected call_endpoint description: %q", call.Description)
	}
}

func TestSearchInputSchema(t *testing.T) {
	reg := newTestRegistry(t, newFakeAPI(t, nil))
	tool, err := reg.GetTool("search")
	if err != nil {
		t.Fatalf("GetTool failed: %v", err)
	}
	input := tool.InputSchema.(map[string]any)

	required, _ := input["required"].([]any)
	if len(required) != 1 || required[0] != "type" {
		t.Errorf("required = %v, want [type]", required)
	}

	props := input["properties"].(map[string]any)
	fields := props["fields"].(map[string]any)
	if fields["description"] != "Filter which fields are returned." {
		t.Errorf("fields description = %v", fields["description"])
	}

	chambers := props["stat_In_chambers"].(map[string]any)
	if desc := chambers["description"].(string); desc != "Valid when type in: [o]" {
		t.Errorf("stat_In_chambers description = %q", desc)
	}

	q := props["q"].(map[string]any)["description"].(string)
	if !strings.HasSuffix(q, "Valid when type in: [o r rd d p oa]") {
		t.Errorf("q description = %q", q)
	}

	typ := props["type"].(map[string]any)["description"].(string)
	if strings.Contains(typ, "Valid when type in") {
		t.Errorf("type description should not list search types: %q", typ)
	}
	if !strings.Contains(typ, "Valid choices:\n\n[\n  {\n    \"value\": \"o\",\n    \"display_name\": \"Opinion\"") {
		t.Errorf("type description missing choices: %q", typ)
	}
	if _, ok := props["type"].(map[string]any)["choices"]; ok {
		t.Error("choices key should be dropped")
	}
}

func TestSearch_Fields(t *testing.T) {
	api := newFakeAPI(t, map[string][]map[string]any{"/search/": opinions()})
	reg := newTestRegistry(t, api)
	ctx := context.Background()

	result, err := reg.Execute(ctx, "search", map[string]any{
		"type":   "o",
		"q":      "abortion",
		"fields": []any{"caseName"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text := ResultText(result)
	if strings.HasPrefix(text, "WARNING") {
		t.Fatalf("unexpected warning: %s", text)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, text)
	}
	if len(got) != 2 || len(got[0]) != 1 || got[0]["caseName"] != "Roe v. Wade" {
		t.Errorf("unexpected projection: %v", got)
	}
	if !strings.Contains(text, "\n  {\n    \"caseName\"") {
		t.Errorf("expected 2-space indentation:\n%s", text)
	}

	q := api.last().URL.Query()
	if q.Get("type") != "o" || q.Get("q") != "abortion" || q.Has("fields") {
		t.Errorf("unexpected query: %v", q)
	}
}

func TestSearch_MissingFieldsWarning(t *testing.T) {
	reg := newTestRegistry(t, newFakeAPI(t, map[string][]map[string]any{"/search/": opinions()}))

	result, err := reg.Execute(context.Background(), "search", map[string]any{
		"type":   "Opinion",
		"fields": []any{"caseName", "judge"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	text := ResultText(result)
	want := "WARNING: Some fields in [caseName judge] not found in results.\n\n" +
		"Available fields: caseName, court, dateFiled\n\n["
	if !strings.HasPrefix(text, want) {
		t.Errorf("unexpected warning:\n%s", text)
	}
}

func TestSearch_ValidationError(t *testing.T) {
	api := newFakeAPI(t, map[string][]map[string]any{"/search/": opinions()})
	reg := newTestRegistry(t, api)
	session := connect(t, reg)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search",
		Arguments: map[string]any{"type": "o", "no_such_filter": 1},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for unknown filter")
	}
	if !strings.Contains(ResultText(res), "no_such_filter") {
		t.Errorf("expected the filter name in the error, got %q", ResultText(res))
	}
	if api.calls() != 0 {
		t.Errorf("expected no API calls, got %d", api.calls())
	}
}

func TestGetEndpointSchema(t *testing.T) {
	reg := newTestRegistry(t, newFakeAPI(t, nil))

	tool, _ := reg.GetTool("get_endpoint_schema")
	input := tool.InputSchema.(map[string]any)
	desc := input["properties"].(map[string]any)["endpoint_id"].(map[string]any)["description"].(string)
	if !strings.HasPrefix(desc, "Valid endpoint IDs:\n\taba-ratings\n\t") {
		t.Errorf("unexpected description prefix: %q", desc[:40])
	}
	for _, id := range strings.Split(strings.TrimPrefix(desc, "Valid endpoint IDs:\n\t"), "\n\t") {
		if id == "search" || strings.HasSuffix(id, "-search") {
			t.Errorf("search endpoint %q listed", id)
		}
	}
	if !strings.Contains(desc, "\n\tdockets\n") {
		t.Error("dockets not listed")
	}

	ctx := context.Background()
	result, err := reg.Execute(ctx, "get_endpoint_schema", map[string]any{"endpoint_id": "dockets"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
	}
	if err := json.Unmarshal([]byte(ResultText(result)), &schema); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if schema.Type != "object" {
		t.Errorf("type = %q", schema.Type)
	}
	source, ok := schema.Properties["source"]
	if !ok {
		t.Fatal("source property missing")
	}
	if !strings.Contains(source["description"].(string), "Valid choices:") {
		t.Errorf("source description should list choices: %v", source["description"])
	}
	for _, key := range []string{"choices", "title", "default", "related"} {
		if _, ok := source[key]; ok {
			t.Errorf("key %q should be dropped", key)
		}
	}

	again, err := reg.Execute(ctx, "get_endpoint_schema", map[string]any{"endpoint_id": "dockets"})
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if ResultText(again) != ResultText(result) {
		t.Error("cached schema differs from the first rendering")
	}
}

func TestGetEndpointSchema_SkipsConst(t *testing.T) {
	reg := newTestRegistry(t, newFakeAPI(t, nil))
	result, err := reg.Execute(context.Background(), "get_endpoint_schema", map[string]any{"endpoint_id": "opinion-search"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.Contains(ResultText(result), `"const"`) {
		t.Errorf("const properties should be skipped:\n%s", ResultText(result))
	}
}

func TestEndpointNotFound(t *testing.T) {
	api := newFakeAPI(t, nil)
	reg := newTestRegistry(t, api)
	ctx := context.Background()

	for _, name := range []string{"get_endpoint_schema", "call_endpoint"} {
		result, err := reg.Execute(ctx, name, map[string]any{"endpoint_id": "nope"})
		if err != nil {
			t.Fatalf("%s: Execute failed: %v", name, err)
		}
		if !result.IsError {
			t.Errorf("%s: expected IsError", name)
		}
		if got := ResultText(result); got != "Endpoint 'nope' not found" {
			t.Errorf("%s: text = %q", name, got)
		}
	}
	if api.calls() != 0 {
		t.Errorf("expected no API calls, got %d", api.calls())
	}
}

func TestCallEndpoint(t *testing.T) {
	api := newFakeAPI(t, map[string][]map[string]any{
		"/dockets/": {{"id": 1, "case_name": "Foo v. Bar"}},
	})
	reg := newTestRegistry(t, api)
	session := connect(t, reg)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "call_endpoint",
		Arguments: map[string]any{
			"endpoint_id": "dockets",
			"query":       map[string]any{"court": map[string]any{"id": "scotus"}, "source": "RECAP"},
		},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", ResultText(res))
	}
	want := "[\n  {\n    \"case_name\": \"Foo v. Bar\",\n    \"id\": 1\n  }\n]"
	if got := ResultText(res); got != want {
		t.Errorf("text =\n%s\nwant\n%s", got, want)
	}

	req := api.last()
	if req.URL.Path != apiPrefix+"/dockets/" {
		t.Errorf("path = %s", req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("court__id") != "scotus" || q.Get("source") != "1" {
		t.Errorf("unexpected query: %v", q)
	}
	if got := req.Header.Get("Authorization"); got != "Token secret" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestFindEndpoint(t *testing.T) {
	reg := newTestRegistry(t, newFakeAPI(t, nil))
	result, err := reg.Execute(context.Background(), "find_endpoint", map[string]any{
		"query": "oral argument audio",
		"limit": float64(3),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	var hits []endpointHit
	if err := json.Unmarshal([]byte(ResultText(result)), &hits); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(hits) == 0 || len(hits) > 3 {
		t.Fatalf("expected 1-3 hits, got %d", len(hits))
	}
	found := false
	for _, h := range hits {
		if h.ID == "audio" || h.ID == "oral-argument-search" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an oral argument endpoint, got %+v", hits)
	}

	if _, err := reg.Execute(context.Background(), "find_endpoint", map[string]any{"query": "x", "limit": -1}); err == nil {
		t.Error("expected error for negative limit")
	}
}
