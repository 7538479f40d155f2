package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	timeago "github.com/caarlos0/timea.go"

	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/proto"
	"github.com/dotcommander/yagent/internal/storage"
)

func (rt *runtime) listSessions() error {
	store, err := openSessionStore(&rt.cfg)
	if err != nil {
		return errs.Wrap(err, "Could not open the session store.")
	}

	sessions := store.Index.List()
	if len(sessions) == 0 {
		fmt.Fprintln(rt.stderr, "No sessions found.")
		return nil
	}
	printList(rt.stdout, present.StdoutStyles(), sessions)
	return nil
}

func (rt *runtime) showSession(in string) error {
	store, err := openSessionStore(&rt.cfg)
	if err != nil {
		return errs.Wrap(err, "Could not open the session store.")
	}

	var found *storage.Session
	if in == "" {
		found, err = store.Index.Latest()
	} else {
		found, err = store.Index.Find(in)
	}
	if err != nil {
		return errs.Wrap(err, "There was an error loading the session.")
	}

	var messages []proto.Message
	if err := store.Transcripts.Read(found.ID, &messages); err != nil {
		return errs.Wrap(err, "There was an error loading the session.")
	}

	out := proto.Conversation(messages).String()
	if present.IsOutputTTY() && !rt.cfg.Raw {
		if formatted, err := present.RenderMarkdown(out, rt.cfg.WordWrap); err == nil {
			out = formatted
		}
	}
	fmt.Fprint(rt.stdout, out)
	return nil
}

func (rt *runtime) deleteSessions(targets []string) error {
	store, err := openSessionStore(&rt.cfg)
	if err != nil {
		return errs.Wrap(err, "Couldn't delete session.")
	}

	for _, del := range targets {
		found, err := store.Index.Find(del)
		if err != nil {
			return errs.Wrap(err, "Couldn't find session to delete.")
		}
		if err := store.delete(rt.stderr, &rt.cfg, found.ID); err != nil {
			return err
		}
	}
	return nil
}

func (rt *runtime) pruneSessions(olderThan time.Duration, yes bool) error {
	store, err := openSessionStore(&rt.cfg)
	if err != nil {
		return errs.Wrap(err, "Could not open the session store.")
	}

	sessions := store.Index.ListOlderThan(olderThan)
	if len(sessions) == 0 {
		if !rt.cfg.Quiet {
			fmt.Fprintln(rt.stderr, "No sessions found.")
		}
		return nil
	}

	if !yes && !rt.cfg.Quiet {
		printList(rt.stdout, present.StdoutStyles(), sessions)

		if !present.IsOutputTTY() || !present.IsInputTTY() {
			fmt.Fprintln(rt.stderr)
			//nolint:wrapcheck // user-facing guidance error
			return errs.UserErrorf(
				"To delete the sessions above, run: %s",
				strings.Join(append(os.Args, "--yes"), " "),
			)
		}
		prompt := fmt.Sprintf("Delete the %d sessions older than %s? [y/N] ", len(sessions), olderThan)
		if !confirm(os.Stdin, rt.stderr, prompt) {
			//nolint:wrapcheck // user-facing abort
			return errs.UserErrorf("Aborted by user")
		}
	}

	for _, s := range sessions {
		if err := store.delete(rt.stderr, &rt.cfg, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printList(w io.Writer, styles present.Styles, sessions []storage.Session) {
	for _, s := range sessions {
		meta := timeago.Of(s.UpdatedAt)
		if s.Model != "" {
			meta += " " + s.Model
		}
		_, _ = fmt.Fprintf(
			w,
			"%s\t%s\t%s\n",
			styles.ID.Render(storage.ShortID(s.ID)),
			s.Title,
			styles.Timeago.Render(meta),
		)
	}
}
