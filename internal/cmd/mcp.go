package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	mmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/config"
	imcp "github.com/dotcommander/yagent/internal/mcp"
	"github.com/dotcommander/yagent/internal/present"
)

func newMCPCmd(rt *runtime) *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server integration",
	}

	mcpCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured MCP servers",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			mcpList(rt.stdout, &rt.cfg)
			return nil
		},
	})

	mcpCmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List tools from enabled MCP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			return mcpListTools(cmd.Context(), rt.stdout, &rt.cfg)
		},
	})

	return mcpCmd
}

func mcpList(w io.Writer, cfg *config.Config) {
	svc := imcp.New(cfg)
	styles := present.StdoutStyles()
	for _, name := range slices.Sorted(maps.Keys(cfg.MCPServers)) {
		server := cfg.MCPServers[name]
		status := "disabled"
		if svc.IsEnabled(name) {
			status = "enabled"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, serverTarget(server), styles.Timeago.Render(status))
	}
}

// serverTarget describes where a server is reached: the URL for remote
// transports and the command line for stdio.
func serverTarget(s config.MCPServerConfig) string {
	if s.URL != "" {
		return s.URL
	}
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// mcpListTools prints tools under the names the model sees them by.
func mcpListTools(ctx context.Context, w io.Writer, cfg *config.Config) error {
	svc := imcp.New(cfg)
	servers, err := svc.Tools(ctx)
	if err != nil {
		return fmt.Errorf("mcp list tools: %w", err)
	}

	for _, sname := range slices.Sorted(maps.Keys(servers)) {
		tools := servers[sname]
		slices.SortFunc(tools, func(a, b mmcp.Tool) int { return strings.Compare(a.Name, b.Name) })
		for _, tool := range tools {
			fmt.Fprintf(w, "%s%s\n", present.StdoutStyles().Timeago.Render(sname+" > "), sname+"_"+tool.Name)
		}
	}
	return nil
}
