package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yagent/internal/errs"
)

func TestLoad(t *testing.T) {
	t.Run("creates the settings file from the template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "yagent", "yagent.yml")
		cfg, err := Load(path)
		require.NoError(t, err)
		require.FileExists(t, path)

		def := Default()
		require.Equal(t, def.Provider, cfg.Provider)
		require.Equal(t, def.Model, cfg.Model)
		require.Equal(t, def.MaxRounds, cfg.MaxRounds)
		require.Equal(t, def.ExecTimeout, cfg.ExecTimeout)
		require.Equal(t, def.MCPTimeout, cfg.MCPTimeout)
		require.Equal(t, filepath.Join(filepath.Dir(path), "history"), cfg.CachePath)
		require.DirExists(t, cfg.CachePath)
	})

	t.Run("template round-trips through yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "yagent.yml")
		require.NoError(t, WriteConfigFile(path))
		bts, err := os.ReadFile(path)
		require.NoError(t, err)

		var cfg Config
		require.NoError(t, yaml.Unmarshal(bts, &cfg))
		require.Equal(t, 10*time.Second, cfg.ExecTimeout)
		require.Equal(t, 30*time.Second, cfg.RequestTimeout)
		require.Equal(t, 2, cfg.MaxRetries)
		require.Zero(t, cfg.ToolLimit)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "yagent.yml")
		require.NoError(t, os.WriteFile(path, []byte("provider: groq\nmodel: llama\nmax-rounds: 4\n"), 0o600))
		t.Setenv("YAGENT_MODEL", "mixtral")
		t.Setenv("YAGENT_EXEC_TIMEOUT", "3s")
		t.Setenv("YAGENT_MCP_DISABLE", "a,b")
		t.Setenv("YAGENT_TOOL_CONCURRENCY", "2")

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "groq", cfg.Provider)
		require.Equal(t, "mixtral", cfg.Model)
		require.Equal(t, 4, cfg.MaxRounds)
		require.Equal(t, 3*time.Second, cfg.ExecTimeout)
		require.Equal(t, []string{"a", "b"}, cfg.MCPDisable)
		require.Equal(t, 2, cfg.ToolLimit)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "yagent.yml")
		require.NoError(t, os.WriteFile(path, []byte("model: [oops"), 0o600))
		_, err := Load(path)
		var uerr errs.Error
		require.ErrorAs(t, err, &uerr)
		require.Equal(t, "Could not parse settings file.", uerr.Reason)
	})
}

func TestMergeRolesFromDir(t *testing.T) {
	t.Run("loads markdown and yaml roles", func(t *testing.T) {
		root := t.TempDir()
		rolesDir := filepath.Join(root, "roles", "team")
		require.NoError(t, os.MkdirAll(rolesDir, 0o700))
		reviewer := filepath.Join(rolesDir, "reviewer.md")
		require.NoError(t, os.WriteFile(reviewer, []byte("be precise\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(root, "roles", "list.yml"), []byte("- one\n- two\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(root, "roles", "single.yaml"), []byte("just one"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(root, "roles", "notes.txt"), []byte("ignored"), 0o600))

		cfg := Config{Runtime: Runtime{SettingsPath: filepath.Join(root, "yagent.yml")}}
		require.NoError(t, MergeRolesFromDir(&cfg))
		require.Equal(t, []string{"file://" + reviewer}, cfg.Roles["team/reviewer"])
		require.Equal(t, []string{"one", "two"}, cfg.Roles["list"])
		require.Equal(t, []string{"just one"}, cfg.Roles["single"])
		require.NotContains(t, cfg.Roles, "notes")
	})

	t.Run("settings roles win", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "roles"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(root, "roles", "shell.md"), []byte("from dir"), 0o600))

		cfg := Config{
			Settings: Settings{Roles: map[string][]string{"shell": {"from config"}}},
			Runtime:  Runtime{SettingsPath: filepath.Join(root, "yagent.yml")},
		}
		require.NoError(t, MergeRolesFromDir(&cfg))
		require.Equal(t, []string{"from config"}, cfg.Roles["shell"])
	})

	t.Run("no roles directory", func(t *testing.T) {
		cfg := Config{Runtime: Runtime{SettingsPath: filepath.Join(t.TempDir(), "yagent.yml")}}
		require.NoError(t, MergeRolesFromDir(&cfg))
		require.Nil(t, cfg.Roles)
	})
}

func TestLookupProvider(t *testing.T) {
	tests := map[string]struct {
		provider string
		baseURL  string
		want     string
		missing  bool
	}{
		"openai":           {provider: "openai", want: "https://api.openai.com/v1"},
		"openrouter":       {provider: "openrouter", want: "https://openrouter.ai/api/v1"},
		"groq":             {provider: "groq", want: "https://api.groq.com/openai/v1"},
		"ollama":           {provider: "ollama", want: "http://localhost:11434/v1"},
		"override":         {provider: "openai", baseURL: "http://localhost:8080/v1/", want: "http://localhost:8080/v1"},
		"custom":           {provider: "custom", baseURL: "https://llm.example.com/v1", want: "https://llm.example.com/v1"},
		"custom no url":    {provider: "custom", missing: true},
		"unknown provider": {provider: "nope"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Config{Settings: Settings{Provider: tc.provider, BaseURL: tc.baseURL}}
			p, err := cfg.LookupProvider()
			if tc.want == "" {
				require.Error(t, err)
				var missing errs.MissingCredentialError
				require.Equal(t, tc.missing, errors.As(err, &missing))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, p.BaseURL)
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	t.Setenv("OPENAI_API_KEY", "")

	t.Run("explicit key", func(t *testing.T) {
		cfg := Config{Settings: Settings{Provider: "openai", APIKey: "sk-1"}}
		key, err := cfg.ResolveAPIKey(ctx)
		require.NoError(t, err)
		require.Equal(t, "sk-1", key)
	})

	t.Run("named env var", func(t *testing.T) {
		t.Setenv("MY_KEY", "sk-2")
		cfg := Config{Settings: Settings{Provider: "openai", APIKeyEnv: "MY_KEY"}}
		key, err := cfg.ResolveAPIKey(ctx)
		require.NoError(t, err)
		require.Equal(t, "sk-2", key)
	})

	t.Run("command", func(t *testing.T) {
		cfg := Config{Settings: Settings{Provider: "openai", APIKeyCmd: `echo "sk-3"`}}
		key, err := cfg.ResolveAPIKey(ctx)
		require.NoError(t, err)
		require.Equal(t, "sk-3", key)
	})

	t.Run("provider env var", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "gsk-4")
		cfg := Config{Settings: Settings{Provider: "groq"}}
		key, err := cfg.ResolveAPIKey(ctx)
		require.NoError(t, err)
		require.Equal(t, "gsk-4", key)
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg := Config{Settings: Settings{Provider: "ollama"}}
		key, err := cfg.ResolveAPIKey(ctx)
		require.NoError(t, err)
		require.Empty(t, key)
	})

	t.Run("missing key", func(t *testing.T) {
		cfg := Config{Settings: Settings{Provider: "openai"}}
		_, err := cfg.ResolveAPIKey(ctx)
		var missing errs.MissingCredentialError
		require.ErrorAs(t, err, &missing)
		var uerr errs.Error
		require.ErrorAs(t, err, &uerr)
		require.Contains(t, uerr.Reason, "OPENAI_API_KEY")
	})
}
