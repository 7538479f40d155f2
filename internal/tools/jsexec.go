package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dotcommander/yagent/internal/sandbox"
)

// Executor runs code in isolation. *sandbox.Bridge satisfies it.
type Executor interface {
	Execute(ctx context.Context, code string) sandbox.Result
}

// JSExec implements the js_exec tool.
type JSExec struct {
	Executor Executor
}

type execArgs struct {
	Code string `json:"code"`
}

// Tool implements Handler.
func (j *JSExec) Tool() mcp.Tool {
	return mcp.NewTool("js_exec",
		mcp.WithDescription("Run JavaScript in an isolated sandbox and return what it printed."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("JavaScript source to execute"),
		),
	)
}

// Call implements Handler.
func (j *JSExec) Call(ctx context.Context, args json.RawMessage, snap Snapshot) (any, error) {
	var in execArgs
	if err := decodeArgs("js_exec", args, &in); err != nil {
		return nil, err
	}
	if j.Executor == nil {
		return nil, errors.New("js_exec: no sandbox configured")
	}
	code := in.Code
	if strings.TrimSpace(code) == "" {
		code = ExtractCode(snap.RecentUserText(3))
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("js_exec: no code to run")
	}
	return j.Executor.Execute(ctx, code), nil
}
