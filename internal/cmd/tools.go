package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/agent"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/llm"
)

func newToolsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool schema sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			d, err := rt.newDispatcher(cmd.Context(), rt.logger(), nil, agent.NopObserver{})
			if err != nil {
				return err
			}
			bts, err := json.MarshalIndent(llm.FromMCPTools(d.Schema()), "", "  ")
			if err != nil {
				return errs.Wrap(err, "Could not encode the tool schema.")
			}
			fmt.Fprintln(rt.stdout, string(bts))
			return nil
		},
	}
}
