package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yagent/internal/errs"
)

const maxRemotePromptBytes = 2 * 1024 * 1024

// SystemPrompt resolves the system instruction: the configured role's
// prompts, else the system setting. It returns "" when neither is set.
func (c *Config) SystemPrompt(ctx context.Context) (string, error) {
	if c.Role != "" {
		setup, ok := c.Roles[c.Role]
		if !ok {
			return "", errs.Error{Err: fmt.Errorf("role %q does not exist", c.Role), Reason: "Could not use role"}
		}
		parts := make([]string, 0, len(setup))
		for _, msg := range setup {
			content, err := LoadPrompt(ctx, msg)
			if err != nil {
				return "", errs.Error{Err: err, Reason: "Could not use role"}
			}
			parts = append(parts, strings.TrimSpace(content))
		}
		return strings.Join(parts, "\n\n"), nil
	}
	if c.System == "" {
		return "", nil
	}
	content, err := LoadPrompt(ctx, c.System)
	if err != nil {
		return "", errs.Error{Err: err, Reason: "Could not load the system prompt"}
	}
	return strings.TrimSpace(content), nil
}

// LoadPrompt loads a prompt given as:
//   - a raw string
//   - an http(s) URL
//   - a file:// path
//
// For markdown files loaded via file://, YAML frontmatter is stripped.
func LoadPrompt(ctx context.Context, msg string) (string, error) {
	if strings.HasPrefix(msg, "https://") || strings.HasPrefix(msg, "http://") {
		return fetchPrompt(ctx, msg)
	}

	path, ok := strings.CutPrefix(msg, "file://")
	if !ok {
		return msg, nil
	}
	bts, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return StripYAMLFrontmatter(string(bts))
	}
	return string(bts), nil
}

func fetchPrompt(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch prompt: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch prompt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bts, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("fetch prompt: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bts)))
	}
	bts, err := io.ReadAll(io.LimitReader(resp.Body, maxRemotePromptBytes))
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	if len(bts) >= maxRemotePromptBytes {
		return "", fmt.Errorf("read prompt: response too large (>%d bytes)", maxRemotePromptBytes)
	}
	return string(bts), nil
}

// StripYAMLFrontmatter removes YAML frontmatter from markdown content.
func StripYAMLFrontmatter(content string) (string, error) {
	lines := strings.Split(content, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return content, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", fmt.Errorf("invalid markdown frontmatter: missing closing delimiter")
	}

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &parsed); err != nil {
		return "", fmt.Errorf("invalid markdown frontmatter: %w", err)
	}
	return strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\r\n"), nil
}
