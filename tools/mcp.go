package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server exposing every registered tool under its
// bare name. Handler errors are returned to the client as IsError results.
func NewServer(r *Registry) *mcp.Server {
	info := r.ServerInfo()
	server := mcp.NewServer(&mcp.Implementation{Name: info.Name, Version: info.Version}, nil)

	for _, tool := range r.ListAll() {
		decl := tool.Tool
		server.AddTool(&decl, r.mcpHandler(tool.ToolID()))
	}
	return server
}

func (r *Registry) mcpHandler(id string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}
		result, err := r.Execute(ctx, id, args)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}
		return result, nil
	}
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidArgument, err)
	}
	return args, nil
}
