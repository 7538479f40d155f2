package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPrompt(t *testing.T) {
	const content = "just text"
	ctx := context.Background()

	t.Run("normal msg", func(t *testing.T) {
		msg, err := LoadPrompt(ctx, content)
		require.NoError(t, err)
		require.Equal(t, content, msg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "foo.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		msg, err := LoadPrompt(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, content, msg)
	})

	t.Run("markdown file strips yaml frontmatter", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "role.md")
		md := "---\nname: helper\nstyle: calm\n---\nYou are concise and direct.\n"
		require.NoError(t, os.WriteFile(path, []byte(md), 0o644))

		msg, err := LoadPrompt(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, "You are concise and direct.\n", msg)
	})

	t.Run("markdown file with invalid frontmatter errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "role.md")
		md := "---\nname: [broken\n---\ncontent"
		require.NoError(t, os.WriteFile(path, []byte(md), 0o644))

		_, err := LoadPrompt(ctx, "file://"+path)
		require.ErrorContains(t, err, "invalid markdown frontmatter")
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "remote prompt")
		}))
		t.Cleanup(srv.Close)

		msg, err := LoadPrompt(ctx, srv.URL)
		require.NoError(t, err)
		require.Equal(t, "remote prompt", msg)
	})

	t.Run("url error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		_, err := LoadPrompt(ctx, srv.URL)
		require.ErrorContains(t, err, "HTTP 404")
	})
}

func TestSystemPrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("role wins over system", func(t *testing.T) {
		cfg := Config{Settings: Settings{
			System: "ignored",
			Role:   "terse",
			Roles:  map[string][]string{"terse": {"Be brief.", " One line only. "}},
		}}
		got, err := cfg.SystemPrompt(ctx)
		require.NoError(t, err)
		require.Equal(t, "Be brief.\n\nOne line only.", got)
	})

	t.Run("unknown role", func(t *testing.T) {
		cfg := Config{Settings: Settings{Role: "nope"}}
		_, err := cfg.SystemPrompt(ctx)
		require.ErrorContains(t, err, `role "nope" does not exist`)
	})

	t.Run("system setting", func(t *testing.T) {
		cfg := Config{Settings: Settings{System: "  You help.  "}}
		got, err := cfg.SystemPrompt(ctx)
		require.NoError(t, err)
		require.Equal(t, "You help.", got)
	})

	t.Run("nothing configured", func(t *testing.T) {
		got, err := (&Config{}).SystemPrompt(ctx)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}
