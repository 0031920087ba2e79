package tools

import (
	"context"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolHandler executes a local tool with the arguments of one call.
// A result with IsError set reports a failure to the model without failing
// the call; a returned error is wrapped in ErrExecutionFailed.
type ToolHandler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// LocalToolOption configures local tool registration.
type LocalToolOption func(*localToolConfig)

type localToolConfig struct {
	namespace string
	tags      []string
	version   string
}

// WithNamespace sets the namespace for a local tool.
func WithNamespace(ns string) LocalToolOption {
	return func(c *localToolConfig) {
		c.namespace = ns
	}
}

// WithTags sets the tags for a local tool.
func WithTags(tags ...string) LocalToolOption {
	return func(c *localToolConfig) {
		c.tags = tags
	}
}

// WithVersion sets the version for a local tool.
func WithVersion(v string) LocalToolOption {
	return func(c *localToolConfig) {
		c.version = v
	}
}

func applyLocalToolOptions(opts []LocalToolOption) localToolConfig {
	var cfg localToolConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func buildLocalTool(name, description string, inputSchema map[string]any, cfg localToolConfig) model.Tool {
	return model.Tool{
		Tool: mcp.Tool{
			Name:        name,
			Description: description,
			InputSchema: inputSchema,
		},
		Namespace: cfg.namespace,
		Version:   cfg.version,
		Tags:      model.NormalizeTags(cfg.tags),
	}
}

// TextResult wraps text in a successful tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// ErrorResult wraps text in a tool result with IsError set.
func ErrorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// ResultText returns the concatenated text content of a result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, content := range result.Content {
		if t, ok := content.(*mcp.TextContent); ok {
			text += t.Text
		}
	}
	return text
}
