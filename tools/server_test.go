package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/courtlistener/telemetry"
)

func newHTTPTestServer(t *testing.T) (*httptest.Server, *telemetry.Metrics) {
	t.Helper()
	metrics := telemetry.NewMetrics()
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}, Metrics: metrics})
	calls := 0
	if err := reg.RegisterLocalFunc("echo", "Echoes back input", echoSchema(), echoHandler(&calls), WithNamespace("test")); err != nil {
		t.Fatalf("RegisterLocalFunc failed: %v", err)
	}
	srv := httptest.NewServer(NewHTTPServer(reg, metrics))
	t.Cleanup(srv.Close)
	return srv, metrics
}

func TestHTTPServer_Healthz(t *testing.T) {
	srv, _ := newHTTPTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["status"] != "ok" || body["tools"] != float64(1) {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHTTPServer_StreamableMCP(t *testing.T) {
	srv, _ := newHTTPTestServer(t)
	ctx := context.Background()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: srv.URL + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"message": "streamed"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if got := ResultText(res); got != "streamed" {
		t.Errorf("result = %q, want streamed", got)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)
	exposition := string(raw)

	if !strings.Contains(exposition, `courtlistener_tool_calls_total{status="ok",tool="echo"} 1`) {
		t.Errorf("tool call not counted:\n%s", exposition)
	}
	if !strings.Contains(exposition, `courtlistener_http_requests_total{method="POST",path="/mcp"`) {
		t.Errorf("MCP requests not counted:\n%s", exposition)
	}
}
