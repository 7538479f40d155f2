package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/dotcommander/yagent/internal/present"
)

var helpText = map[string]string{
	"provider":           "OpenAI-compatible provider: openai, openrouter, groq, ollama or custom",
	"model":              "Model to use",
	"base-url":           "Override the provider base URL",
	"http-proxy":         "HTTP proxy to use for API requests",
	"role":               "System role to use",
	"system":             "System prompt: text, file:// path or URL",
	"continue":           "Continue from the last response or a given session ID or title",
	"continue-last":      "Continue the last session",
	"title":              "Save the session with the given title",
	"quiet":              "Only print the answer and errors",
	"max-rounds":         "Maximum model rounds per prompt",
	"max-retries":        "Maximum retries when the API request fails",
	"request-timeout":    "How long to wait for the API to start responding",
	"exec-timeout":       "How long a js_exec script may run",
	"tool-concurrency":   "Tool calls run at once per round; 0 for all",
	"no-cache":           "Do not save the session",
	"mcp-disable":        "Disable specific MCP servers (or * for all)",
	"mcp-no-inherit-env": "Do not pass the environment to stdio MCP servers",
	"verbose":            "Log to stderr; repeat for more detail",
	"older-than":         "Delete sessions older than this; e.g. 24h, 7d",
	"last":               "Show the last saved session",
	"raw":                "Print plain text instead of rendered markdown",
}

func useLine(cmd *cobra.Command) string {
	appName := filepath.Base(os.Args[0])

	if present.StdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = present.GradientText(present.StdoutStyles().AppName, appName)
	}

	args := "[OPTIONS] [PROMPT]"
	if cmd.HasParent() {
		args = strings.TrimPrefix(cmd.UseLine(), cmd.Root().Name()+" ")
	}
	return fmt.Sprintf(
		"%s %s",
		appName,
		present.StdoutStyles().CliArgs.Render(args),
	)
}

func usageFunc(cmd *cobra.Command) error {
	s := present.StdoutStyles()
	fmt.Printf(
		"Usage:\n  %s\n\n",
		useLine(cmd),
	)
	if cmd.HasAvailableSubCommands() {
		fmt.Println("Commands:")
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			fmt.Printf("  %-20s %s\n", s.Flag.Render(sub.Name()), s.FlagDesc.Render(sub.Short))
		}
		fmt.Println()
	}
	fmt.Println("Options:")
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Printf(
				"  %-44s %s\n",
				s.Flag.Render("--"+f.Name),
				s.FlagDesc.Render(f.Usage),
			)
		} else {
			fmt.Printf(
				"  %s%s %-40s %s\n",
				s.Flag.Render("-"+f.Shorthand),
				s.FlagComma,
				s.Flag.Render("--"+f.Name),
				s.FlagDesc.Render(f.Usage),
			)
		}
	})
	if cmd.HasExample() {
		fmt.Printf(
			"\nExample:\n  %s\n  %s\n",
			s.Comment.Render("# "+cmd.Example),
			cheapHighlighting(s, examples[cmd.Example]),
		)
	}

	return nil
}
