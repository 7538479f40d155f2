package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/errs"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved sessions",
	}

	historyCmd.AddCommand(newHistoryListCmd(rt))
	historyCmd.AddCommand(newHistoryShowCmd(rt))
	historyCmd.AddCommand(newHistoryDeleteCmd(rt))
	historyCmd.AddCommand(newHistoryPruneCmd(rt))

	return historyCmd
}

func newHistoryListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			return rt.listSessions()
		},
	}
}

func newHistoryShowCmd(rt *runtime) *cobra.Command {
	var last bool
	showCmd := &cobra.Command{
		Use:   "show [id-or-title]",
		Short: "Show a saved session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			drainStdin()
			var in string
			if len(args) == 1 {
				in = args[0]
			}
			if in == "" && !last {
				return errs.Wrap(errs.UserErrorf("pass an ID or title, or --last"), "Which session should be shown?")
			}
			return rt.showSession(in)
		},
		ValidArgsFunction: func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return sessionCompletions(&rt.cfg, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
	}
	showCmd.Flags().BoolVarP(&last, "last", "S", false, helpText["last"])
	showCmd.Flags().BoolVarP(&rt.cfg.Raw, "raw", "r", false, helpText["raw"])
	return showCmd
}

func newHistoryDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-title> [more...]",
		Short: "Delete saved sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			return rt.deleteSessions(args)
		},
		ValidArgsFunction: func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return sessionCompletions(&rt.cfg, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
	}
}

func newHistoryPruneCmd(rt *runtime) *cobra.Command {
	var olderThan time.Duration
	var yes bool
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			if olderThan == 0 {
				return errs.Wrap(errs.UserErrorf("missing --older-than"), "Could not delete old sessions.")
			}
			return rt.pruneSessions(olderThan, yes)
		},
	}
	pruneCmd.Flags().Var(newDurationFlag(olderThan, &olderThan), "older-than", helpText["older-than"])
	pruneCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return pruneCmd
}
