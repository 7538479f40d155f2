package cmd

import (
	"context"

	"github.com/dotcommander/yagent/internal/config"
)

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, build BuildInfo, cfg config.Config, cfgErr error) int {
	defer maybeWriteMemProfile()

	if err := NewRootCmd(build, cfg, cfgErr).ExecuteContext(ctx); err != nil {
		handleError(err)
		return 1
	}
	return 0
}
