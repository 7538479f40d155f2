// Package main provides the yagent CLI.
package main

import (
	"context"
	"os"

	"github.com/dotcommander/yagent/internal/cmd"
	"github.com/dotcommander/yagent/internal/config"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version = ""
	//nolint: gochecknoglobals
	CommitSHA = ""
)

func main() {
	cfg, cfgErr := config.Ensure()
	os.Exit(cmd.Execute(context.Background(), cmd.BuildInfo{Version: Version, CommitSHA: CommitSHA}, cfg, cfgErr))
}
