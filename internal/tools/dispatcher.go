// Package tools routes model-issued tool calls to their handlers and turns
// whatever they produce, errors included, into tool results.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/yagent/internal/proto"
)

// Handler implements a single tool.
type Handler interface {
	// Tool declares the tool's name and input schema.
	Tool() mcp.Tool
	// Call runs the tool. args is always a JSON object.
	Call(ctx context.Context, args json.RawMessage, snap Snapshot) (any, error)
}

// Notifier receives non-fatal tool failures. It is called concurrently.
type Notifier func(tool string, err error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithNotifier sets the failure side channel.
func WithNotifier(fn Notifier) Option {
	return func(d *Dispatcher) { d.notify = fn }
}

// WithConcurrency bounds how many tools run at once. Zero means unbounded.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.limit = n }
}

// Dispatcher holds the registered tools.
type Dispatcher struct {
	handlers map[string]Handler
	order    []string
	log      logr.Logger
	notify   Notifier
	limit    int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: map[string]Handler{},
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds handlers. Names must be unique.
func (d *Dispatcher) Register(handlers ...Handler) error {
	for _, h := range handlers {
		name := h.Tool().Name
		if name == "" {
			return errors.New("register tool: empty name")
		}
		if _, exists := d.handlers[name]; exists {
			return fmt.Errorf("register tool: %q already registered", name)
		}
		d.handlers[name] = h
		d.order = append(d.order, name)
	}
	return nil
}

// Schema returns the declarations of all registered tools in registration
// order.
func (d *Dispatcher) Schema() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.handlers[name].Tool())
	}
	return out
}

// Names returns the registered tool names in registration order.
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.order...)
}

// Dispatch runs all calls concurrently and waits for every one of them.
// The result at position i answers calls[i]; a failing call never affects
// the others.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []proto.ToolCall, snap Snapshot) []proto.ToolResult {
	results := make([]proto.ToolResult, len(calls))
	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i, call := range calls {
		g.Go(func() error {
			results[i] = d.call(ctx, call, snap)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) call(ctx context.Context, call proto.ToolCall, snap Snapshot) (res proto.ToolResult) {
	name := call.Function.Name
	res = proto.ToolResult{ToolCallID: call.ID, Name: name}
	log := d.log.WithValues("tool", name, "id", call.ID)

	defer func() {
		if r := recover(); r != nil {
			res = d.fail(log, res, fmt.Errorf("tool panicked: %v", r))
		}
	}()

	h, ok := d.handlers[name]
	if !ok {
		return d.fail(log, res, &UnknownToolError{Name: name})
	}
	args, err := parseArguments(call.Function.Arguments)
	if err != nil {
		return d.fail(log, res, &ArgumentParseError{Tool: name, Err: err})
	}

	start := time.Now()
	out, err := h.Call(ctx, args, snap)
	if err != nil {
		return d.fail(log, res, err)
	}
	bts, err := json.Marshal(out)
	if err != nil {
		return d.fail(log, res, fmt.Errorf("encode %s result: %w", name, err))
	}
	log.V(1).Info("tool call finished", "duration", time.Since(start))
	res.Content = string(bts)
	return res
}

func (d *Dispatcher) fail(log logr.Logger, res proto.ToolResult, err error) proto.ToolResult {
	log.Info("tool call failed", "error", err.Error())
	if d.notify != nil {
		d.notify(res.Name, err)
	}
	bts, _ := json.Marshal(map[string]string{"error": err.Error()})
	res.Content = string(bts)
	res.IsError = true
	return res
}

func parseArguments(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return json.RawMessage("{}"), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(text), nil
}

// decodeArgs unmarshals args into v, reporting mismatches as
// ArgumentParseError.
func decodeArgs(tool string, args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return &ArgumentParseError{Tool: tool, Err: err}
	}
	return nil
}
