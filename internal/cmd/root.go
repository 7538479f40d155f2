package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/agent"
	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/proto"
)

type runtime struct {
	build  BuildInfo
	cfg    config.Config
	cfgErr error

	stdout io.Writer
	stderr io.Writer
	// streamer replaces the LLM client when set.
	streamer agent.Streamer
}

// NewRootCmd constructs the Cobra root command.
func NewRootCmd(build BuildInfo, cfg config.Config, cfgErr error) *cobra.Command {
	rt := &runtime{
		build:  normalizeBuildInfo(build),
		cfg:    cfg,
		cfgErr: cfgErr,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	return rt.rootCmd()
}

func (rt *runtime) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           config.AppName + " [prompt]",
		Short:         "A streaming, tool-calling agent for the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       randomExample(),
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			stdin, err := readStdin()
			if err != nil {
				return errs.Wrap(err, "Could not read your input.")
			}
			return rt.runPrompt(ctx, joinPrompt(args, stdin))
		},
	}

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.Version = rt.build.Version
	rootCmd.SetVersionTemplate(versionTemplate(rt.build))

	initRootFlags(rootCmd, &rt.cfg)

	rootCmd.AddCommand(newChatCmd(rt))
	rootCmd.AddCommand(newHistoryCmd(rt))
	rootCmd.AddCommand(newConfigCmd(rt))
	rootCmd.AddCommand(newMCPCmd(rt))
	rootCmd.AddCommand(newToolsCmd(rt))
	rootCmd.AddCommand(newRolesCmd(rt))
	rootCmd.AddCommand(newManCmd(rootCmd))

	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}

func (rt *runtime) logger() logr.Logger {
	return newLogger(rt.stderr, max(rt.cfg.Verbose, rt.cfg.LogLevel))
}

// runPrompt answers a single prompt, streaming the reply to stdout.
func (rt *runtime) runPrompt(ctx context.Context, prompt string) error {
	if prompt == "" && rt.cfg.Continue == "" && !rt.cfg.ContinueLast {
		return errs.Error{
			Reason: "You haven't provided any prompt input.",
			Err: errs.UserErrorf(
				"You can give your prompt as arguments and/or pipe it from STDIN.\nExample: %s",
				present.StderrStyles().InlineCode.Render(config.AppName+" [prompt]"),
			),
		}
	}

	store, pl, history, err := rt.openSession()
	if err != nil {
		return err
	}

	pr := newPrinter(rt.stdout, rt.stderr, present.StderrStyles(), rt.cfg.Quiet)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sess, err := rt.startSession(ctx, pl, history, pr)
	if err != nil {
		return err
	}

	outcome, sendErr := sess.Send(ctx, prompt)
	pr.finish()
	if outcome == agent.Cancelled && !rt.cfg.Quiet {
		fmt.Fprintln(rt.stderr, present.StderrStyles().Comment.Render("Cancelled."))
	}
	if errors.Is(sendErr, agent.ErrBusy) {
		return errs.Wrap(sendErr, "The session is busy.")
	}

	if store != nil {
		if err := store.save(&rt.cfg, pl, sess.Messages()); err != nil {
			return err
		}
		printSaved(rt.stderr, &rt.cfg, pl)
	}
	return sendErr
}

// openSession plans the session and loads its history. store is nil when
// caching is disabled.
func (rt *runtime) openSession() (*sessionStore, sessionPlan, []proto.Message, error) {
	pl := sessionPlan{Provider: rt.cfg.Provider, Model: rt.cfg.Model, Title: rt.cfg.Title}
	if rt.cfg.NoCache {
		if rt.cfg.Continue != "" || rt.cfg.ContinueLast {
			return nil, pl, nil, errs.Error{
				Err:    errs.UserErrorf("--continue needs the session cache"),
				Reason: "Cannot continue a session with --no-cache.",
			}
		}
		return nil, pl, nil, nil
	}

	store, err := openSessionStore(&rt.cfg)
	if err != nil {
		return nil, pl, nil, errs.Wrap(err, "Could not open the session store.")
	}
	pl, err = planSession(&rt.cfg, store.Index)
	if err != nil {
		return nil, pl, nil, err
	}
	history, err := store.load(pl)
	if err != nil {
		return nil, pl, nil, err
	}
	return store, pl, history, nil
}
