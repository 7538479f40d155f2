package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/x/exp/ordered"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/storage"
)

// sessionPlan says where a run reads its history from and writes it to.
type sessionPlan struct {
	WriteID  string
	Title    string
	ReadID   string
	Provider string
	Model    string
}

// planSession resolves --continue, --continue-last and --title against the
// index. A resumed session keeps its provider and model unless none were
// recorded.
func planSession(cfg *config.Config, idx *storage.Index) (sessionPlan, error) {
	continueLast := cfg.ContinueLast || (cfg.Continue != "" && cfg.Title == "")
	readID := cfg.Continue
	writeID := ordered.First(cfg.Title, cfg.Continue)
	title := writeID
	provider := cfg.Provider
	model := cfg.Model

	if readID != "" || continueLast {
		found, err := findSession(idx, readID)
		if err != nil {
			return sessionPlan{}, errs.Wrap(err, "Could not find the session.")
		}
		readID = found.ID
		provider = ordered.First(found.Provider, provider)
		model = ordered.First(found.Model, model)
	}

	if continueLast {
		writeID = readID
	}

	if writeID == "" {
		writeID = storage.NewSessionID()
	}

	if !storage.IDRegexp.MatchString(writeID) {
		found, err := idx.Find(writeID)
		if err != nil {
			// a new session with a title
			writeID = storage.NewSessionID()
		} else {
			writeID = found.ID
		}
	}

	return sessionPlan{
		WriteID:  writeID,
		Title:    title,
		ReadID:   readID,
		Provider: provider,
		Model:    model,
	}, nil
}

// findSession resolves in by ID prefix or title, falling back to the latest
// session when nothing matches.
func findSession(idx *storage.Index, in string) (*storage.Session, error) {
	found, err := idx.Find(in)
	if err == nil {
		return found, nil
	}
	if errors.Is(err, storage.ErrNoMatches) {
		found, err := idx.Latest()
		if err != nil {
			return nil, fmt.Errorf("find latest session: %w", err)
		}
		return found, nil
	}
	return nil, fmt.Errorf("find session: %w", err)
}
