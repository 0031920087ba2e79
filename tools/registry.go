package tools

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/courtlistener/telemetry"
)

// Config configures a Registry.
type Config struct {
	ServerInfo ServerInfo
	// Logger receives one event per tool call. The zero value discards.
	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
}

// ServerInfo describes this MCP server for the initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// Registry holds tool declarations and their local handlers. Tools are
// registered once at startup; afterwards the registry is read-only.
type Registry struct {
	mu     sync.RWMutex
	config Config

	tools    map[string]model.Tool
	byName   map[string]string
	order    []string
	handlers map[string]ToolHandler
}

// New creates a new Registry with the given config.
func New(cfg Config) *Registry {
	if cfg.ServerInfo.Name == "" {
		cfg.ServerInfo.Name = "courtlistener"
	}
	return &Registry{
		config:   cfg,
		tools:    make(map[string]model.Tool),
		byName:   make(map[string]string),
		handlers: make(map[string]ToolHandler),
	}
}

// ServerInfo returns the configured server identity.
func (r *Registry) ServerInfo() ServerInfo {
	return r.config.ServerInfo
}

// RegisterLocal registers a tool with a local execution handler. Tool
// names are unique across namespaces because MCP clients call tools by
// name.
func (r *Registry) RegisterLocal(tool model.Tool, handler ToolHandler) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, tool.ToolID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := tool.ToolID()
	if _, dup := r.byName[tool.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
	}
	r.tools[id] = tool
	r.byName[tool.Name] = id
	r.order = append(r.order, id)
	r.handlers[id] = handler
	return nil
}

// RegisterLocalFunc is a convenience for inline tool definition.
func (r *Registry) RegisterLocalFunc(
	name, description string,
	inputSchema map[string]any,
	handler ToolHandler,
	opts ...LocalToolOption,
) error {
	cfg := applyLocalToolOptions(opts)
	tool := buildLocalTool(name, description, inputSchema, cfg)
	return r.RegisterLocal(tool, handler)
}

// ListAll returns all registered tools in registration order.
func (r *Registry) ListAll() []model.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Tool, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tools[id])
	}
	return out
}

// ListNamespaces returns the sorted namespaces of the registered tools.
func (r *Registry) ListNamespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, tool := range r.tools {
		if tool.Namespace != "" && !slices.Contains(out, tool.Namespace) {
			out = append(out, tool.Namespace)
		}
	}
	slices.Sort(out)
	return out
}

// GetTool returns a tool by id ("namespace:name") or by bare name.
func (r *Registry) GetTool(id string) (model.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.lookup(id)
	if !ok {
		return model.Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	return r.tools[key], nil
}

func (r *Registry) lookup(id string) (string, bool) {
	if _, ok := r.tools[id]; ok {
		return id, true
	}
	key, ok := r.byName[id]
	return key, ok
}

// Execute runs a tool by id or name with the given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	r.mu.RLock()
	key, ok := r.lookup(name)
	handler := r.handlers[key]
	tool := r.tools[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, key)
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	result, err := handler(ctx, args)
	elapsed := time.Since(start)

	failed := err != nil || (result != nil && result.IsError)
	r.config.Metrics.ObserveTool(tool.Name, failed, elapsed)

	event := r.config.Logger.Info()
	if failed {
		event = r.config.Logger.Warn()
	}
	event.Str("tool", tool.ToolID()).Dur("duration", elapsed).Err(err).Bool("is_error", failed).Msg("tool call")

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, tool.Name, err)
	}
	if result == nil {
		result = TextResult("")
	}
	return result, nil
}

// RegistryStats returns registry statistics.
type RegistryStats struct {
	TotalTools int
	Namespaces int
}

// Stats returns registry statistics.
func (r *Registry) Stats() RegistryStats {
	return RegistryStats{
		TotalTools: len(r.ListAll()),
		Namespaces: len(r.ListNamespaces()),
	}
}
