package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/courtlistener/query"
	"github.com/jonwraymond/courtlistener/schema"
	"github.com/jonwraymond/courtlistener/telemetry"
)

const apiPrefix = "/api/rest/v4"

// fakeAPI serves canned JSON and records every request it receives.
type fakeAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	handle   func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T, handle func(api *fakeAPI, w http.ResponseWriter, r *http.Request)) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.handle = func(w http.ResponseWriter, r *http.Request) { handle(api, w, r) }
	api.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Clone(context.Background()))
		api.mu.Unlock()
		api.handle(w, r)
	}))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) base() string { return a.srv.URL + apiPrefix }

func (a *fakeAPI) link(pathAndQuery string) string { return a.srv.URL + apiPrefix + pathAndQuery }

func (a *fakeAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *fakeAPI) request(i int) *http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[i]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	c, err := New(Options{Token: "secret", BaseURL: api.base()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// threePages serves dockets in three pages of two records linked by cursor.
func threePages(count any) func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
	return func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiPrefix+"/dockets/" && r.URL.Query().Get("count") == "on" {
			writeJSON(w, http.StatusOK, map[string]any{"count": 1234})
			return
		}
		if r.URL.Path != apiPrefix+"/dockets/" {
			http.NotFound(w, r)
			return
		}
		page := map[string]any{"count": count, "next": nil, "previous": nil}
		switch r.URL.Query().Get("cursor") {
		case "":
			page["results"] = []map[string]any{{"id": 1}, {"id": 2}}
			page["next"] = api.link("/dockets/?cursor=2")
		case "2":
			page["results"] = []map[string]any{{"id": 3}, {"id": 4}}
			page["next"] = api.link("/dockets/?cursor=3")
			page["previous"] = api.link("/dockets/?court=scotus")
		case "3":
			page["results"] = []map[string]any{{"id": 5}, {"id": 6}}
			page["previous"] = api.link("/dockets/?cursor=2")
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func ids(t *testing.T, records []map[string]any) []float64 {
	t.Helper()
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r["id"].(float64)
	}
	return out
}

func TestNew_Token(t *testing.T) {
	t.Setenv(TokenEnv, "")
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingToken)

	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})
	})
	t.Setenv(TokenEnv, "from-env")
	c, err := New(Options{BaseURL: api.base() + "/"})
	require.NoError(t, err)
	assert.Equal(t, api.base(), c.BaseURL())

	_, err = c.MustResource("dockets").Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Token from-env", api.request(0).Header.Get("Authorization"))
}

func TestOverlap(t *testing.T) {
	base := "https://www.courtlistener.com/api/rest/v4"
	tests := []struct {
		path string
		want int
	}{
		{"/api/rest/v4/search/", len("/api/rest/v4")},
		{"/api/rest/v4/", len("/api/rest/v4")},
		{"/v4/dockets/", len("/v4")},
		{"/search/", 0},
		{"/", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, overlap(base, tt.path), tt.path)
	}
}

func TestResolve(t *testing.T) {
	c, err := New(Options{Token: "x", BaseURL: "https://www.courtlistener.com/api/rest/v4"})
	require.NoError(t, err)

	got, err := c.resolve("https://www.courtlistener.com/api/rest/v4/search/?q=x&cursor=abc", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://www.courtlistener.com/api/rest/v4/search/?cursor=abc&q=x", got)

	got, err = c.resolve("/dockets/", url.Values{"court": {"scotus"}})
	require.NoError(t, err)
	assert.Equal(t, "https://www.courtlistener.com/api/rest/v4/dockets/?court=scotus", got)
}

func TestIterator_ThreePages(t *testing.T) {
	api := newFakeAPI(t, threePages(6))
	c := newTestClient(t, api)

	it, err := c.MustResource("dockets").List(map[string]any{"court": "scotus"})
	require.NoError(t, err)
	assert.Equal(t, 0, api.calls(), "List must not fetch")

	var records []map[string]any
	for record, err := range it.All(context.Background()) {
		require.NoError(t, err)
		records = append(records, record)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, ids(t, records))
	assert.Equal(t, 3, api.calls())

	first := api.request(0)
	assert.Equal(t, apiPrefix+"/dockets/", first.URL.Path)
	assert.Equal(t, "scotus", first.URL.Query().Get("court"))
	assert.Equal(t, "Token secret", first.Header.Get("Authorization"))
	assert.Equal(t, "3", api.request(2).URL.Query().Get("cursor"))

	err = it.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoNextPage)
	var nav *NavigationError
	require.ErrorAs(t, err, &nav)
	assert.Equal(t, DirectionNext, nav.Direction)
	assert.Equal(t, "no next page", err.Error())
	assert.Equal(t, 3, api.calls())
}

func TestIterator_Previous(t *testing.T) {
	api := newFakeAPI(t, threePages(6))
	c := newTestClient(t, api)
	ctx := context.Background()

	it, err := c.MustResource("dockets").List(nil)
	require.NoError(t, err)

	hasPrev, err := it.HasPrevious(ctx)
	require.NoError(t, err)
	assert.False(t, hasPrev)
	assert.ErrorIs(t, it.Previous(ctx), ErrNoPreviousPage)

	require.NoError(t, it.Next(ctx))
	results, err := it.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, ids(t, results))

	require.NoError(t, it.Previous(ctx))
	results, err = it.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, ids(t, results))
	assert.Equal(t, 3, api.calls(), "previous is re-fetched, not cached")

	hasNext, err := it.HasNext(ctx)
	require.NoError(t, err)
	assert.True(t, hasNext)
}

func TestIterator_CountInt(t *testing.T) {
	api := newFakeAPI(t, threePages(42))
	c := newTestClient(t, api)
	ctx := context.Background()

	it, err := c.MustResource("dockets").List(nil)
	require.NoError(t, err)
	for range 2 {
		n, err := it.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, n)
	}
	assert.Equal(t, 1, api.calls())
}

func TestIterator_CountURL(t *testing.T) {
	api := newFakeAPI(t, func(a *fakeAPI, w http.ResponseWriter, r *http.Request) {
		threePages(a.link("/dockets/?count=on&court=scotus"))(a, w, r)
	})
	c := newTestClient(t, api)
	ctx := context.Background()

	it, err := c.MustResource("dockets").List(map[string]any{"court": "scotus"})
	require.NoError(t, err)
	for range 3 {
		n, err := it.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1234, n)
	}
	assert.Equal(t, 2, api.calls(), "one page fetch plus one count fetch")
	assert.Equal(t, apiPrefix+"/dockets/", api.request(1).URL.Path)
	assert.Equal(t, "on", api.request(1).URL.Query().Get("count"))
}

func TestIterator_NoCount(t *testing.T) {
	api := newFakeAPI(t, threePages(nil))
	c := newTestClient(t, api)

	it, err := c.MustResource("dockets").List(nil)
	require.NoError(t, err)
	_, err = it.Count(context.Background())
	assert.ErrorIs(t, err, ErrNoCount)
}

func TestList_ValidationErrorMakesNoRequest(t *testing.T) {
	api := newFakeAPI(t, threePages(6))
	c := newTestClient(t, api)

	_, err := c.MustResource("dockets").List(map[string]any{"not_a_field": 1})
	assert.ErrorIs(t, err, query.ErrSchemaViolation)

	_, err = c.MustResource("dockets").List(map[string]any{"source": "Nope"})
	assert.Error(t, err)
	assert.Equal(t, 0, api.calls())
}

func TestList_SearchDispatch(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"count":          3,
			"document_count": 7,
			"next":           nil,
			"previous":       nil,
			"results":        []map[string]any{{"id": 1}},
		})
	})
	c := newTestClient(t, api)
	ctx := context.Background()

	it, err := c.MustResource("search").List(map[string]any{"q": "privacy", "type": "r"})
	require.NoError(t, err)
	assert.Equal(t, "recap-search", it.Endpoint().ID)

	dc, err := it.DocumentCount(ctx)
	require.NoError(t, err)
	require.NotNil(t, dc)
	assert.Equal(t, 7, *dc)

	req := api.request(0)
	assert.Equal(t, apiPrefix+"/search/", req.URL.Path)
	assert.Equal(t, "privacy", req.URL.Query().Get("q"))
	assert.Equal(t, "r", req.URL.Query().Get("type"))
}

func TestTransportError(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPrefix + "/dockets/1/":
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid token."})
		case apiPrefix + "/dockets/2/":
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad filter"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("<html>oops</html>"))
		}
	})
	c := newTestClient(t, api)
	dockets := c.MustResource("dockets")
	ctx := context.Background()

	tests := []struct {
		id      int
		status  int
		message string
	}{
		{1, http.StatusUnauthorized, "Invalid token."},
		{2, http.StatusBadRequest, "bad filter"},
		{3, http.StatusInternalServerError, "Status 500: 500 Internal Server Error"},
	}
	for _, tt := range tests {
		_, err := dockets.Get(ctx, tt.id)
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, tt.status, te.StatusCode)
		assert.Equal(t, tt.message, te.Message)
		assert.Equal(t, http.MethodGet, te.Method)
	}
}

func TestPage_Strict(t *testing.T) {
	var p Page
	err := json.Unmarshal([]byte(`{"results": [], "extra": 1}`), &p)
	assert.ErrorIs(t, err, ErrMalformedPage)

	err = json.Unmarshal([]byte(`{"count": 1}`), &p)
	assert.ErrorIs(t, err, ErrMalformedPage)

	require.NoError(t, json.Unmarshal([]byte(`{"count": "https://x/count", "next": "https://x/?cursor=2", "results": [{"id": 1}]}`), &p))
	u, ok := p.Count.URL()
	assert.True(t, ok)
	assert.Equal(t, "https://x/count", u)
	require.NotNil(t, p.Next)
	assert.Nil(t, p.Previous)
	assert.Len(t, p.Results, 1)
}

func TestPage_MalformedResponse(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}, "facets": map[string]any{}})
	})
	c := newTestClient(t, api)

	it, err := c.MustResource("dockets").List(nil)
	require.NoError(t, err)
	_, err = it.CurrentPage(context.Background())
	assert.ErrorIs(t, err, ErrMalformedPage)
}

func TestCount_JSON(t *testing.T) {
	tests := []struct {
		in   string
		want Count
	}{
		{`5`, IntCount(5)},
		{`"https://x/count"`, URLCount("https://x/count")},
		{`null`, Count{}},
	}
	for _, tt := range tests {
		var c Count
		require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
		assert.Equal(t, tt.want, c)

		out, err := json.Marshal(c)
		require.NoError(t, err)
		assert.JSONEq(t, tt.in, string(out))
	}
	assert.True(t, Count{}.IsZero())
}

func TestResource_Get(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 123, "case_name": "Roe v. Wade"})
	})
	c := newTestClient(t, api)

	got, err := c.MustResource("dockets").Get(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, "Roe v. Wade", got["case_name"])
	assert.Equal(t, apiPrefix+"/dockets/123/", api.request(0).URL.Path)
}

func TestClient_UnknownResource(t *testing.T) {
	c, err := New(Options{Token: "x"})
	require.NoError(t, err)

	_, err = c.Resource("nope")
	assert.ErrorIs(t, err, schema.ErrEndpointNotFound)
	assert.Panics(t, func() { c.MustResource("nope") })
}

func TestClient_Metrics(t *testing.T) {
	api := newFakeAPI(t, threePages(6))
	metrics := telemetry.NewMetrics()
	c, err := New(Options{Token: "x", BaseURL: api.base(), Metrics: metrics})
	require.NoError(t, err)

	it, err := c.MustResource("dockets").List(nil)
	require.NoError(t, err)
	_, err = it.CurrentPage(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `courtlistener_api_requests_total{endpoint="dockets",method="GET",status="200"} 1`)
}

func TestClient_Refresh(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == apiPrefix+"/":
			writeJSON(w, http.StatusOK, map[string]string{
				"dockets": api.link("/dockets/"),
				"courts":  api.link("/courts/"),
				"search":  api.link("/search/"),
			})
		case r.Method == http.MethodOptions && r.URL.Path == apiPrefix+"/dockets/":
			writeJSON(w, http.StatusOK, map[string]any{
				"name":        "Docket List",
				"description": "Dockets in federal and state courts.",
				"actions": map[string]any{"POST": map[string]any{
					"case_name": map[string]any{"type": "string", "help_text": "The case name."},
				}},
				"filters": map[string]any{
					"case_name": map[string]any{"type": "CharFilter", "lookup_types": []string{"exact", "icontains"}},
					"court":     map[string]any{"type": "RelatedFilter", "lookup_types": "See available filters for 'Courts'"},
				},
			})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "boom"})
		}
	})
	c := newTestClient(t, api)

	reg, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, reg.Has("dockets"))
	assert.True(t, reg.Has("search"))
	assert.True(t, reg.Has("opinion-search"))
	assert.False(t, reg.Has("courts"))

	dockets, err := reg.Endpoint("dockets")
	require.NoError(t, err)
	assert.Equal(t, "Docket List", dockets.Name)
	f, ok := dockets.Field("case_name")
	require.True(t, ok)
	assert.Equal(t, []string{"icontains"}, f.Lookups)

	court, ok := dockets.Field("court")
	require.True(t, ok)
	assert.Equal(t, schema.KindNumber, court.Kind, "related target missing from the refresh")

	for _, req := range api.requests {
		assert.False(t, req.Method == http.MethodOptions && strings.HasSuffix(req.URL.Path, "/search/"))
	}
}
