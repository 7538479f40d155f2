package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotcommander/yagent/internal/agent"
	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/proto"
)

const chatHelp = `Commands:
  /clear  start over with an empty conversation
  /help   show this help
  /exit   quit (also Ctrl+D)
Ctrl+C cancels the answer in progress.`

func newChatCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [initial prompt]",
		Short: "Start an interactive multi-turn chat session",
		Long:  "Start a line-based chat with the agent. Ctrl+C cancels the answer in progress; type /exit or press Ctrl+D to quit.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()
			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)
			return rt.runChat(ctx, os.Stdin, interrupts, strings.Join(args, " "))
		},
	}

	addSessionFlags(cmd, &rt.cfg)
	cmd.Flags().SortFlags = false
	return cmd
}

func (rt *runtime) runChat(ctx context.Context, in io.Reader, interrupts <-chan os.Signal, initial string) error {
	store, pl, history, err := rt.openSession()
	if err != nil {
		return err
	}

	styles := present.StderrStyles()
	pr := newPrinter(rt.stdout, rt.stderr, styles, rt.cfg.Quiet)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sess, err := rt.startSession(ctx, pl, history, pr)
	if err != nil {
		return err
	}

	var saved bool
	r := &repl{
		sess:       sess,
		pr:         pr,
		interrupts: interrupts,
		out:        rt.stdout,
		errOut:     rt.stderr,
		styles:     styles,
		save: func(msgs []proto.Message) error {
			if store == nil || len(msgs) == 0 {
				return nil
			}
			saved = true
			return store.save(&rt.cfg, pl, msgs)
		},
	}
	if !rt.cfg.Quiet && present.IsErrorTTY() {
		fmt.Fprintln(rt.stderr, present.Banner(styles, config.AppName, "type /help for commands"))
	}
	if len(history) > 0 && !rt.cfg.Quiet {
		fmt.Fprintln(rt.stderr, styles.Comment.Render(fmt.Sprintf("Resumed session with %d messages.", len(history))))
	}
	if err := r.run(ctx, in, initial); err != nil {
		return err
	}
	if saved {
		printSaved(rt.stderr, &rt.cfg, pl)
	}
	return nil
}

// chatSession is the part of *agent.Session the REPL drives.
type chatSession interface {
	Send(ctx context.Context, userText string) (agent.Outcome, error)
	Clear() error
	Messages() []proto.Message
}

type repl struct {
	sess       chatSession
	pr         *printer
	interrupts <-chan os.Signal
	out        io.Writer
	errOut     io.Writer
	styles     present.Styles
	save       func([]proto.Message) error
}

func (r *repl) run(ctx context.Context, in io.Reader, initial string) error {
	lines := readLines(ctx, in)
	if initial = strings.TrimSpace(initial); initial != "" {
		if err := r.send(ctx, initial); err != nil {
			return err
		}
	}
	for {
		fmt.Fprint(r.out, r.styles.Flag.Render(">")+" ")
		select {
		case <-ctx.Done():
			return nil
		case <-r.interrupts:
			fmt.Fprintln(r.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return nil
			}
			quit, err := r.handle(ctx, line)
			if err != nil || quit {
				return err
			}
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) (quit bool, err error) {
	switch line = strings.TrimSpace(line); line {
	case "":
		return false, nil
	case "/exit", "/quit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.errOut, r.styles.Comment.Render(chatHelp))
		return false, nil
	case "/clear":
		if err := r.sess.Clear(); err != nil {
			writeError(r.errOut, r.styles, err)
			return false, nil
		}
		fmt.Fprintln(r.errOut, r.styles.Comment.Render("Conversation cleared."))
		return false, nil
	}
	return false, r.send(ctx, line)
}

type sendResult struct {
	outcome agent.Outcome
	err     error
}

// send runs one Send; an interrupt cancels it without leaving the REPL.
// Request failures are printed and the REPL carries on.
func (r *repl) send(ctx context.Context, text string) error {
	roundCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan sendResult, 1)
	go func() {
		outcome, err := r.sess.Send(roundCtx, text)
		done <- sendResult{outcome: outcome, err: err}
	}()

	var res sendResult
	for waiting := true; waiting; {
		select {
		case <-r.interrupts:
			cancel()
		case res = <-done:
			waiting = false
		}
	}
	r.pr.finish()

	switch {
	case res.outcome == agent.Cancelled:
		fmt.Fprintln(r.errOut, r.styles.Comment.Render("Cancelled."))
	case res.err != nil:
		writeError(r.errOut, r.styles, res.err)
	}
	return r.save(r.sess.Messages())
}

// readLines feeds lines from in until EOF or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStdinBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
