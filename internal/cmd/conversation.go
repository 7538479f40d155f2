package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/proto"
	"github.com/dotcommander/yagent/internal/storage"
	"github.com/dotcommander/yagent/internal/storage/cache"
)

const maxTitleLen = 80

// sessionStore bundles the metadata index and the transcript cache.
type sessionStore struct {
	Index       *storage.Index
	Transcripts *cache.Transcripts
}

func sessionsDir(cfg *config.Config) string {
	return filepath.Join(cfg.CachePath, "sessions")
}

func openSessionStore(cfg *config.Config) (*sessionStore, error) {
	transcripts, err := cache.NewTranscripts(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open transcript cache: %w", err)
	}
	idx, err := storage.Open(sessionsDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("open session index: %w", err)
	}
	return &sessionStore{Index: idx, Transcripts: transcripts}, nil
}

// load reads the transcript of a planned session, if any.
func (s *sessionStore) load(pl sessionPlan) ([]proto.Message, error) {
	if pl.ReadID == "" {
		return nil, nil
	}
	var msgs []proto.Message
	if err := s.Transcripts.Read(pl.ReadID, &msgs); err != nil {
		return nil, errs.Wrap(err, "There was a problem reading the session from cache.")
	}
	return msgs, nil
}

// save writes the transcript first, then the index record, so the index
// never points at a missing transcript.
func (s *sessionStore) save(cfg *config.Config, pl sessionPlan, msgs []proto.Message) error {
	title := strings.TrimSpace(pl.Title)
	if title == "" || storage.IDRegexp.MatchString(title) {
		title = sessionTitle(msgs)
	}

	errReason := fmt.Sprintf(
		"There was a problem writing %s to the cache. Use %s / %s to disable it.",
		storage.ShortID(pl.WriteID),
		present.StderrStyles().InlineCode.Render("--no-cache"),
		present.StderrStyles().InlineCode.Render("YAGENT_NO_CACHE"),
	)
	if err := s.Transcripts.Write(pl.WriteID, msgs); err != nil {
		return errs.Wrap(err, errReason)
	}
	record := storage.Session{
		ID:       pl.WriteID,
		Title:    title,
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Messages: len(msgs),
	}
	if err := s.Index.Save(record); err != nil {
		_ = s.Transcripts.Delete(pl.WriteID)
		return errs.Wrap(err, errReason)
	}
	return nil
}

func (s *sessionStore) delete(w io.Writer, cfg *config.Config, id string) error {
	if err := s.Index.Delete(id); err != nil {
		return fmt.Errorf("delete session index: %w", err)
	}
	if err := s.Transcripts.Delete(id); err != nil {
		return fmt.Errorf("delete session transcript: %w", err)
	}
	if !cfg.Quiet {
		present.PrintConfirmation(w, "deleted", storage.ShortID(id))
	}
	return nil
}

func printSaved(w io.Writer, cfg *config.Config, pl sessionPlan) {
	if cfg.Quiet {
		return
	}
	fmt.Fprintln(w)
	present.PrintConfirmation(w, "", fmt.Sprintf(
		"%s %s",
		present.StderrStyles().InlineCode.Render(storage.ShortID(pl.WriteID)),
		present.StderrStyles().Comment.Render(pl.Title),
	))
}

// sessionTitle is the first line of the last user prompt.
func sessionTitle(messages []proto.Message) string {
	var result string
	for _, msg := range messages {
		if msg.Role == proto.RoleUser && strings.TrimSpace(msg.Content) != "" {
			result = msg.Content
		}
	}
	first, _, _ := strings.Cut(strings.TrimSpace(result), "\n")
	if r := []rune(first); len(r) > maxTitleLen {
		first = string(r[:maxTitleLen])
	}
	if first == "" {
		return "untitled"
	}
	return first
}
