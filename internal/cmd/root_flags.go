package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/storage"
)

func initRootFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	addSessionFlags(cmd, cfg)
	flags.SortFlags = false

	flags.BoolVar(&memprofile, "memprofile", false, "Write memory profiles to CWD")
	_ = flags.MarkHidden("memprofile")
}

// addSessionFlags registers the flags shared by every command that talks to
// the model.
func addSessionFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	desc := func(name string) string { return present.StdoutStyles().FlagDesc.Render(helpText[name]) }

	flags.StringVarP(&cfg.Provider, "provider", "p", cfg.Provider, desc("provider"))
	flags.StringVarP(&cfg.Model, "model", "m", cfg.Model, desc("model"))
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, desc("base-url"))
	flags.StringVarP(&cfg.HTTPProxy, "http-proxy", "x", cfg.HTTPProxy, desc("http-proxy"))
	flags.StringVarP(&cfg.Role, "role", "R", cfg.Role, desc("role"))
	flags.StringVarP(&cfg.System, "system", "s", cfg.System, desc("system"))
	flags.StringVarP(&cfg.Continue, "continue", "c", "", desc("continue"))
	flags.BoolVarP(&cfg.ContinueLast, "continue-last", "C", false, desc("continue-last"))
	flags.StringVarP(&cfg.Title, "title", "t", cfg.Title, desc("title"))
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, desc("quiet"))
	flags.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, desc("max-rounds"))
	flags.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, desc("max-retries"))
	flags.Var(newDurationFlag(cfg.RequestTimeout, &cfg.RequestTimeout), "request-timeout", desc("request-timeout"))
	flags.Var(newDurationFlag(cfg.ExecTimeout, &cfg.ExecTimeout), "exec-timeout", desc("exec-timeout"))
	flags.IntVar(&cfg.ToolLimit, "tool-concurrency", cfg.ToolLimit, desc("tool-concurrency"))
	flags.BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, desc("no-cache"))
	flags.StringArrayVar(&cfg.MCPDisable, "mcp-disable", cfg.MCPDisable, desc("mcp-disable"))
	flags.BoolVar(&cfg.MCPNoInheritEnv, "mcp-no-inherit-env", cfg.MCPNoInheritEnv, desc("mcp-no-inherit-env"))
	flags.CountVarP(&cfg.Verbose, "verbose", "V", desc("verbose"))

	_ = cmd.RegisterFlagCompletionFunc("continue", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return sessionCompletions(cfg, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("role", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return roleNames(cfg, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("provider", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Providers(), cobra.ShellCompDirectiveNoFileComp
	})

	cmd.MarkFlagsMutuallyExclusive("continue", "continue-last")
	cmd.MarkFlagsMutuallyExclusive("role", "system")
}

// sessionCompletions opens the index lazily for shell completion.
func sessionCompletions(cfg *config.Config, toComplete string) []string {
	if cfg.CachePath == "" {
		return nil
	}
	idx, err := storage.Open(sessionsDir(cfg))
	if err != nil {
		return nil
	}
	return idx.Completions(toComplete)
}
