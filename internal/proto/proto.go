// Package proto holds the chat message types exchanged with the model.
package proto

import (
	"fmt"
	"strings"
)

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single role-tagged entry of a conversation.
//
// A tool message always carries the ToolCallID of the call it answers.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model-issued request to invoke a function.
type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function is the function part of a tool call.
//
// Arguments is expected to be JSON once the stream is complete, but may be
// anything while it is still being accumulated.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Delta is the incremental part of a single streamed chunk.
type Delta struct {
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is a fragment of a tool call. Index is nil when the provider
// omitted it.
type ToolCallDelta struct {
	Index    *int     `json:"index,omitempty"`
	ID       string   `json:"id,omitempty"`
	Function Function `json:"function"`
}

// Position returns the tool call index, defaulting to 0.
func (d ToolCallDelta) Position() int {
	if d.Index == nil {
		return 0
	}
	return *d.Index
}

// ToolResult is the normalized output of a tool call. Content is always JSON.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"-"`
}

// Message converts the result into a tool message.
func (r ToolResult) Message() Message {
	return Message{
		Role:       RoleTool,
		Content:    r.Content,
		ToolCallID: r.ToolCallID,
		Name:       r.Name,
	}
}

// Conversation is a list of messages.
type Conversation []Message

// String renders the conversation as a markdown transcript.
func (cc Conversation) String() string {
	var sb strings.Builder
	for _, msg := range cc {
		switch msg.Role {
		case RoleSystem:
			continue
		case RoleUser:
			sb.WriteString("**Prompt**:\n")
		case RoleAssistant:
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				continue
			}
			sb.WriteString("**Assistant**:\n")
			for _, call := range msg.ToolCalls {
				fmt.Fprintf(&sb, "> calling `%s` with `%s`\n\n", call.Function.Name, call.Function.Arguments)
			}
		case RoleTool:
			fmt.Fprintf(&sb, "**Tool** (`%s`):\n", msg.Name)
		}
		if msg.Content == "" {
			continue
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
