package llm

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolSchema is a function declaration sent with the request.
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema describes a callable function.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// FromMCPTools converts MCP tool declarations into function schemas.
func FromMCPTools(tools []mcp.Tool) []ToolSchema {
	out := make([]ToolSchema, 0, len(tools))
	for _, tool := range tools {
		params := map[string]any{
			"type":       "object",
			"properties": tool.InputSchema.Properties,
		}
		if params["properties"] == nil {
			params["properties"] = map[string]any{}
		}
		if len(tool.InputSchema.Required) > 0 {
			params["required"] = tool.InputSchema.Required
		}
		out = append(out, ToolSchema{
			Type: "function",
			Function: FunctionSchema{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
