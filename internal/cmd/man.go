package cmd

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manPage, err := mcobra.NewManPage(1, root)
			if err != nil {
				return fmt.Errorf("build man page: %w", err)
			}
			manPage = manPage.WithSection("Tools", "google_search, ai_pipe and js_exec are always offered to the model. "+
				"Tools of enabled MCP servers are offered as <server>_<tool>.")
			if _, err := fmt.Fprint(cmd.OutOrStdout(), manPage.Build(roff.NewDocument())); err != nil {
				return fmt.Errorf("write man page: %w", err)
			}
			return nil
		},
	}
}
