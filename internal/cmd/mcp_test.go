package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yagent/internal/config"
)

func TestMCPList(t *testing.T) {
	cfg := config.Default()
	cfg.MCPServers = map[string]config.MCPServerConfig{
		"files": {Type: "stdio", Command: "mcp-files", Args: []string{"--root", "/tmp"}},
		"web":   {Type: "http", URL: "http://localhost:9000/mcp"},
	}
	cfg.MCPDisable = []string{"web"}

	var b bytes.Buffer
	mcpList(&b, &cfg)
	require.Equal(t,
		"files\tmcp-files --root /tmp\tenabled\n"+
			"web\thttp://localhost:9000/mcp\tdisabled\n",
		b.String(),
	)
}

func TestServerTarget(t *testing.T) {
	require.Equal(t, "npx", serverTarget(config.MCPServerConfig{Command: "npx"}))
	require.Equal(t, "http://x", serverTarget(config.MCPServerConfig{Command: "ignored", URL: "http://x"}))
}
