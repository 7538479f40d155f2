// Package storage keeps the index of saved sessions: an append-only JSONL
// event log guarded by a file lock and compacted as it grows.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrNoMatches is returned when no sessions match the query.
	ErrNoMatches = errors.New("no sessions found")
	// ErrManyMatches is returned when multiple sessions match the query.
	ErrManyMatches = errors.New("multiple sessions matched the input")
)

const (
	indexFileName      = "index.jsonl"
	compactMinOps      = 256
	compactScaleFactor = 4
)

// Session is the metadata of a saved session.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Messages  int       `json:"messages"`
}

type event struct {
	Op      string   `json:"op"`
	ID      string   `json:"id,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// Index is the session metadata store.
type Index struct {
	mu       sync.RWMutex
	path     string
	lock     *flock.Flock
	sessions map[string]Session
	ops      int
	now      func() time.Time
}

// Open loads the index stored in dir, creating dir if needed.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create store directory: %w", err)
	}
	idx := &Index{
		path:     filepath.Join(dir, indexFileName),
		lock:     flock.New(filepath.Join(dir, "index.lock")),
		sessions: map[string]Session{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Save upserts a session record, stamping its update time.
func (x *Index) Save(s Session) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("save session: %w", errors.New("empty id"))
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("save session: %w", errors.New("empty title"))
	}
	s.UpdatedAt = x.now()

	x.mu.Lock()
	defer x.mu.Unlock()

	x.sessions[s.ID] = s
	if err := x.appendLocked(event{Op: "upsert", Session: &s}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := x.compactIfNeededLocked(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a session record by ID. Unknown IDs are ignored.
func (x *Index) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete session: %w", errors.New("empty id"))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.sessions[id]; !ok {
		return nil
	}
	delete(x.sessions, id)
	if err := x.appendLocked(event{Op: "delete", ID: id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := x.compactIfNeededLocked(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns sessions, most recently updated first.
func (x *Index) List() []Session {
	return x.filter(func(Session) bool { return true })
}

// ListOlderThan returns sessions not updated within d.
func (x *Index) ListOlderThan(d time.Duration) []Session {
	cutoff := x.now().Add(-d)
	return x.filter(func(s Session) bool { return s.UpdatedAt.Before(cutoff) })
}

// Latest returns the most recently updated session.
func (x *Index) Latest() (*Session, error) {
	list := x.List()
	if len(list) == 0 {
		return nil, fmt.Errorf("latest session: %w", ErrNoMatches)
	}
	return &list[0], nil
}

// Find resolves a session by ID prefix or exact title.
func (x *Index) Find(in string) (*Session, error) {
	matches := x.filter(func(s Session) bool {
		if s.Title == in {
			return true
		}
		return len(in) >= IDMinLen && strings.HasPrefix(s.ID, in)
	})
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, in)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrManyMatches, in)
	}
}

// Completions returns shell completion candidates for IDs and titles.
func (x *Index) Completions(in string) []string {
	seen := map[string]struct{}{}
	for _, s := range x.List() {
		if strings.HasPrefix(s.ID, in) {
			seen[ShortID(s.ID)+"\t"+s.Title] = struct{}{}
		}
		if strings.HasPrefix(s.Title, in) {
			seen[s.Title+"\t"+ShortID(s.ID)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (x *Index) filter(keep func(Session) bool) []Session {
	x.mu.RLock()
	out := make([]Session, 0, len(x.sessions))
	for _, s := range x.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	x.mu.RUnlock()

	slices.SortFunc(out, func(a, b Session) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (x *Index) load() error {
	if err := x.lock.RLock(); err != nil {
		return fmt.Errorf("could not lock index file: %w", err)
	}
	defer func() { _ = x.lock.Unlock() }()

	file, err := os.Open(x.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not open index file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var evt event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return fmt.Errorf("could not parse index event: %w", err)
		}
		if err := x.apply(evt); err != nil {
			return err
		}
		x.ops++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not scan index file: %w", err)
	}
	return nil
}

func (x *Index) apply(evt event) error {
	switch evt.Op {
	case "upsert":
		if evt.Session == nil || strings.TrimSpace(evt.Session.ID) == "" {
			return fmt.Errorf("invalid upsert event: missing session")
		}
		x.sessions[evt.Session.ID] = *evt.Session
	case "delete":
		if strings.TrimSpace(evt.ID) == "" {
			return fmt.Errorf("invalid delete event: empty id")
		}
		delete(x.sessions, evt.ID)
	default:
		return fmt.Errorf("invalid index event op: %q", evt.Op)
	}
	return nil
}

func (x *Index) appendLocked(evt event) error {
	if err := x.lock.Lock(); err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	defer func() { _ = x.lock.Unlock() }()

	file, err := os.OpenFile(x.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = file.Close() }()

	bts, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal index event: %w", err)
	}
	if _, err := file.Write(append(bts, '\n')); err != nil {
		return fmt.Errorf("write index event: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync index: %w", err)
	}
	x.ops++
	return nil
}

func (x *Index) compactIfNeededLocked() error {
	if x.ops < compactMinOps {
		return nil
	}
	if len(x.sessions) > 0 && x.ops < len(x.sessions)*compactScaleFactor {
		return nil
	}
	return x.compactLocked()
}

// compactLocked rewrites the log as one upsert per live session and swaps
// it in with a rename.
func (x *Index) compactLocked() error {
	if err := x.lock.Lock(); err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	defer func() { _ = x.lock.Unlock() }()

	items := make([]Session, 0, len(x.sessions))
	for _, s := range x.sessions {
		items = append(items, s)
	}
	slices.SortFunc(items, func(a, b Session) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	tmpPath := x.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open compacted index: %w", err)
	}
	enc := json.NewEncoder(file)
	for _, s := range items {
		if err := enc.Encode(event{Op: "upsert", Session: &s}); err != nil {
			_ = file.Close()
			return fmt.Errorf("write compacted index: %w", err)
		}
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync compacted index: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close compacted index: %w", err)
	}
	if err := os.Rename(tmpPath, x.path); err != nil {
		return fmt.Errorf("replace index with compacted version: %w", err)
	}
	x.ops = len(x.sessions)
	return nil
}
