// Package cache stores session transcripts as sharded JSON files.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dotcommander/yagent/internal/proto"
)

const (
	transcriptsDir = "transcripts"
	cacheExt       = ".json"
	shardPrefixLen = 2
)

var errInvalidID = errors.New("invalid id")

// Transcripts persists full message histories keyed by session ID.
type Transcripts struct {
	dir string
}

// NewTranscripts creates the transcript directory under baseDir.
func NewTranscripts(baseDir string) (*Transcripts, error) {
	dir := filepath.Join(baseDir, transcriptsDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Transcripts{dir: dir}, nil
}

func (c *Transcripts) filePath(id string) string {
	if len(id) < shardPrefixLen {
		return filepath.Join(c.dir, id+cacheExt)
	}
	return filepath.Join(c.dir, id[:shardPrefixLen], id+cacheExt)
}

// Read decodes the transcript for id into messages.
func (c *Transcripts) Read(id string, messages *[]proto.Message) error {
	if id == "" {
		return fmt.Errorf("read: %w", errInvalidID)
	}
	file, err := os.Open(c.filePath(id))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := json.NewDecoder(file).Decode(messages); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// Write atomically replaces the transcript for id.
func (c *Transcripts) Write(id string, messages []proto.Message) error {
	if id == "" {
		return fmt.Errorf("write: %w", errInvalidID)
	}

	path := c.filePath(id)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if messages == nil {
		messages = []proto.Message{}
	}
	if err := json.NewEncoder(tmp).Encode(messages); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Delete removes the transcript for id.
func (c *Transcripts) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("delete: %w", errInvalidID)
	}
	if err := os.Remove(c.filePath(id)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
