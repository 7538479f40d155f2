// Package mcp discovers and calls tools on configured MCP servers.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/errs"
)

// Service provides access to MCP server discovery and tool execution.
type Service struct {
	cfg    *config.Config
	logger logr.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for server lifecycle messages.
func WithLogger(l logr.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a new MCP service.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, logger: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnabled reports whether the named MCP server is enabled.
func (s *Service) IsEnabled(name string) bool {
	return !slices.Contains(s.cfg.MCPDisable, "*") &&
		!slices.Contains(s.cfg.MCPDisable, name)
}

// EnabledServers iterates enabled MCP servers in stable order.
func (s *Service) EnabledServers() iter.Seq2[string, config.MCPServerConfig] {
	return func(yield func(string, config.MCPServerConfig) bool) {
		names := slices.Collect(maps.Keys(s.cfg.MCPServers))
		slices.Sort(names)
		for _, name := range names {
			if !s.IsEnabled(name) {
				continue
			}
			if !yield(name, s.cfg.MCPServers[name]) {
				return
			}
		}
	}
}

// Tools returns tools grouped by server name.
func (s *Service) Tools(ctx context.Context) (map[string][]mcp.Tool, error) {
	var mu sync.Mutex
	var wg errgroup.Group
	result := map[string][]mcp.Tool{}
	for sname, server := range s.EnabledServers() {
		wg.Go(func() error {
			ctx, cancel := s.withTimeout(ctx)
			defer cancel()
			serverTools, err := s.toolsFor(ctx, sname, server)
			if errors.Is(err, context.DeadlineExceeded) {
				return errs.Wrap(
					fmt.Errorf("timeout while listing tools for %q - make sure the configuration is correct. If your server requires a docker container, make sure it's running", sname),
					"Could not list tools",
				)
			}
			if err != nil {
				return errs.Wrap(err, "Could not list tools")
			}
			s.logger.V(1).Info("listed mcp tools", "server", sname, "count", len(serverTools))
			mu.Lock()
			result[sname] = append(result[sname], serverTools...)
			mu.Unlock()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, fmt.Errorf("mcp tools: %w", err)
	}
	return result, nil
}

// CallTool executes a tool call against the configured server.
// fullName must be of the form: <server>_<tool>.
func (s *Service) CallTool(ctx context.Context, fullName string, data []byte) (string, error) {
	sname, tool, ok := s.resolve(fullName)
	if !ok {
		return "", fmt.Errorf("mcp: invalid tool name: %q", fullName)
	}
	if !s.IsEnabled(sname) {
		return "", fmt.Errorf("mcp: server is disabled: %q", sname)
	}

	var args map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &args); err != nil {
			return "", fmt.Errorf("mcp: %w: %s", err, string(data))
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cli, err := s.initClient(ctx, s.cfg.MCPServers[sname])
	if err != nil {
		return "", fmt.Errorf("mcp: %w", err)
	}
	defer cli.Close() //nolint:errcheck

	request := mcp.CallToolRequest{}
	request.Params.Name = tool
	request.Params.Arguments = args
	s.logger.V(1).Info("calling mcp tool", "server", sname, "tool", tool)
	result, err := cli.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("mcp: %w", err)
	}

	text := resultText(result)
	if result.IsError {
		return "", errors.New(text)
	}
	return text, nil
}

// resolve splits fullName into server and tool, preferring the longest
// configured server name so that server names may contain underscores.
func (s *Service) resolve(fullName string) (server, tool string, ok bool) {
	for name := range s.cfg.MCPServers {
		rest, found := strings.CutPrefix(fullName, name+"_")
		if !found || rest == "" || len(name) <= len(server) {
			continue
		}
		server, tool, ok = name, rest, true
	}
	return server, tool, ok
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.MCPTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.MCPTimeout)
}

func resultText(result *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, content := range result.Content {
		switch content := content.(type) {
		case mcp.TextContent:
			sb.WriteString(content.Text)
		default:
			sb.WriteString("[Non-text content]")
		}
	}
	return sb.String()
}

func (s *Service) initClient(ctx context.Context, server config.MCPServerConfig) (*client.Client, error) {
	var cli *client.Client
	var err error

	switch server.Type {
	case "", "stdio":
		env := server.Env
		if !s.cfg.MCPNoInheritEnv {
			env = append(os.Environ(), server.Env...)
		}
		cli, err = client.NewStdioMCPClient(
			server.Command,
			env,
			server.Args...,
		)
	case "sse":
		cli, err = client.NewSSEMCPClient(server.URL)
	case "http":
		cli, err = client.NewStreamableHttpClient(server.URL)
	default:
		return nil, fmt.Errorf("unsupported MCP server type: %q, supported types are: stdio, sse, http", server.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := cli.Start(ctx); err != nil {
		cli.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: config.AppName, Version: "dev"}
	if _, err := cli.Initialize(ctx, init); err != nil {
		cli.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	return cli, nil
}

func (s *Service) toolsFor(ctx context.Context, name string, server config.MCPServerConfig) ([]mcp.Tool, error) {
	start := time.Now()
	cli, err := s.initClient(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("could not setup %s: %w", name, err)
	}
	defer cli.Close() //nolint:errcheck

	tools, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("could not setup %s: %w", name, err)
	}
	s.logger.V(2).Info("mcp server ready", "server", name, "elapsed", time.Since(start))
	return tools.Tools, nil
}
