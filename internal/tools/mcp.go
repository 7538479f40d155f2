package tools

import (
	"context"
	"encoding/json"
	"maps"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
)

// MCPCaller executes a tool on an MCP server. fullName is <server>_<tool>.
type MCPCaller interface {
	CallTool(ctx context.Context, fullName string, data []byte) (string, error)
}

// MCPHandler exposes one MCP server tool to the model.
type MCPHandler struct {
	caller MCPCaller
	tool   mcp.Tool
}

// NewMCPHandlers wraps the tools of each server, renaming them to
// <server>_<tool>.
func NewMCPHandlers(caller MCPCaller, byServer map[string][]mcp.Tool) []Handler {
	var out []Handler
	for _, server := range slices.Sorted(maps.Keys(byServer)) {
		for _, tool := range byServer[server] {
			tool.Name = server + "_" + tool.Name
			out = append(out, &MCPHandler{caller: caller, tool: tool})
		}
	}
	return out
}

// Tool implements Handler.
func (m *MCPHandler) Tool() mcp.Tool { return m.tool }

// Call implements Handler.
func (m *MCPHandler) Call(ctx context.Context, args json.RawMessage, _ Snapshot) (any, error) {
	text, err := m.caller.CallTool(ctx, m.tool.Name, args)
	if err != nil {
		return nil, err
	}
	return map[string]string{"text": text}, nil
}
