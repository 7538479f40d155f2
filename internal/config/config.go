// Package config loads yagent's settings from the YAML settings file and
// YAGENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	stdstrings "strings"
	"text/template"
	"time"

	_ "embed"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/yagent/internal/errs"
)

//go:embed config_template.yml
var configTemplate string

// AppName names the settings directory and file.
const AppName = "yagent"

// Settings holds persisted configuration loaded from the YAML settings file
// and environment variables.
type Settings struct {
	Provider    string `yaml:"provider" env:"PROVIDER"`
	Model       string `yaml:"model" env:"MODEL"`
	BaseURL     string `yaml:"base-url" env:"BASE_URL"`
	APIKey      string `yaml:"api-key" env:"API_KEY"`
	APIKeyEnv   string `yaml:"api-key-env" env:"API_KEY_ENV"`
	APIKeyCmd   string `yaml:"api-key-cmd" env:"API_KEY_CMD"`
	System      string `yaml:"system" env:"SYSTEM"`
	Role        string `yaml:"role" env:"ROLE"`
	GoogleKey   string `yaml:"google-key" env:"GOOGLE_KEY"`
	GoogleCX    string `yaml:"google-cx" env:"GOOGLE_CX"`
	SearchURL   string `yaml:"search-url" env:"SEARCH_URL"`
	AIPipeURL   string `yaml:"aipipe-url" env:"AIPIPE_URL"`
	AIPipeToken string `yaml:"aipipe-token" env:"AIPIPE_TOKEN"`

	MaxRounds      int           `yaml:"max-rounds" env:"MAX_ROUNDS"`
	MaxRetries     int           `yaml:"max-retries" env:"MAX_RETRIES"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"REQUEST_TIMEOUT"`
	ExecTimeout    time.Duration `yaml:"exec-timeout" env:"EXEC_TIMEOUT"`
	ToolLimit      int           `yaml:"tool-concurrency" env:"TOOL_CONCURRENCY"`
	HTTPProxy      string        `yaml:"http-proxy" env:"HTTP_PROXY"`
	LogLevel       int           `yaml:"log-level" env:"LOG_LEVEL"`
	CachePath      string        `yaml:"cache-path" env:"CACHE_PATH"`
	NoCache        bool          `yaml:"no-cache" env:"NO_CACHE"`
	WordWrap       int           `yaml:"word-wrap" env:"WORD_WRAP"`
	Quiet          bool          `yaml:"quiet" env:"QUIET"`

	Roles map[string][]string `yaml:"roles"`

	MCPServers      map[string]MCPServerConfig `yaml:"mcp-servers"`
	MCPDisable      []string                   `yaml:"mcp-disable" env:"MCP_DISABLE"`
	MCPTimeout      time.Duration              `yaml:"mcp-timeout" env:"MCP_TIMEOUT"`
	MCPNoInheritEnv bool                       `yaml:"mcp-no-inherit-env" env:"MCP_NO_INHERIT_ENV"`
}

// Runtime holds CLI-only options that are never read from the settings file.
type Runtime struct {
	SettingsPath string
	Continue     string
	ContinueLast bool
	Title        string
	Raw          bool
	Verbose      int
}

// Config is the application configuration (settings + runtime-only options).
//
// Settings fields are promoted for ergonomic access, but runtime fields are
// explicitly excluded from YAML/env parsing.
type Config struct {
	Settings `yaml:",inline"`
	Runtime  `yaml:"-" env:"-"`
}

// MCPServerConfig holds configuration for an MCP server.
type MCPServerConfig struct {
	Type    string   `yaml:"type"`
	Command string   `yaml:"command"`
	Env     []string `yaml:"env"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`
}

// Ensure loads settings from disk and environment and applies defaults.
//
// It also creates the default settings file if it does not exist.
func Ensure() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errs.Error{Err: err, Reason: "Could not determine home directory."}
	}
	return Load(filepath.Join(home, ".config", AppName, AppName+".yml"))
}

// Load reads the settings file at path, creating it first when missing.
func Load(path string) (Config, error) {
	c := Config{Runtime: Runtime{SettingsPath: path}}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not create config directory."}
	}
	if err := WriteConfigFile(path); err != nil {
		return c, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return c, errs.Error{Err: err, Reason: "Could not read settings file."}
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse settings file."}
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "YAGENT_"}); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse environment into settings."}
	}
	if err := MergeRolesFromDir(&c); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not load roles from roles directory."}
	}

	if c.CachePath == "" {
		c.CachePath = filepath.Join(filepath.Dir(path), "history")
	}
	if err := os.MkdirAll(c.CachePath, 0o700); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not create cache directory."}
	}

	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Provider == "" {
		c.Provider = def.Provider
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = def.MaxRounds
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.ToolLimit < 0 {
		c.ToolLimit = 0
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.ExecTimeout == 0 {
		c.ExecTimeout = def.ExecTimeout
	}
	if c.WordWrap == 0 {
		c.WordWrap = def.WordWrap
	}
	if c.MCPTimeout == 0 {
		c.MCPTimeout = def.MCPTimeout
	}
}

// MergeRolesFromDir merges role definitions from the roles directory next
// to the settings file. Roles from the settings file win.
func MergeRolesFromDir(cfg *Config) error {
	rolesDir := filepath.Join(filepath.Dir(cfg.SettingsPath), "roles")
	roles, err := readRolesFromDir(rolesDir)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	if cfg.Roles == nil {
		cfg.Roles = map[string][]string{}
	}
	for name, setup := range roles {
		if _, exists := cfg.Roles[name]; !exists {
			cfg.Roles[name] = setup
		}
	}
	return nil
}

func readRolesFromDir(dir string) (map[string][]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read roles directory %q: %w", dir, err)
	}

	roles := map[string][]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := stdstrings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".yml" && ext != ".yaml" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("resolve role path %q: %w", path, err)
		}
		name := stdstrings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		setup, err := roleSetupFromFile(path)
		if err != nil {
			return fmt.Errorf("role file %q: %w", rel, err)
		}
		roles[name] = setup
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read roles directory %q: %w", dir, err)
	}
	return roles, nil
}

// roleSetupFromFile turns markdown files into file references and reads
// YAML files as a prompt or a list of prompts.
func roleSetupFromFile(path string) ([]string, error) {
	ext := stdstrings.ToLower(filepath.Ext(path))
	if ext == ".md" {
		return []string{"file://" + path}, nil
	}

	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role file %q: %w", path, err)
	}
	var setup []string
	if err := yaml.Unmarshal(bts, &setup); err == nil {
		return setup, nil
	}
	var single string
	if err := yaml.Unmarshal(bts, &single); err == nil {
		return []string{single}, nil
	}
	return nil, fmt.Errorf("must be a YAML string or string list")
}

// WriteConfigFile creates the config file at path if it does not exist.
func WriteConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return errs.Error{Err: err, Reason: "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errs.Error{Err: err, Reason: "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct{ Config Config }{Config: Default()}
	if err := tmpl.Execute(f, m); err != nil {
		return errs.Error{Err: err, Reason: "Could not render template."}
	}
	return nil
}

// Default returns the default configuration values.
func Default() Config {
	return Config{
		Settings: Settings{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			MaxRounds:      16,
			MaxRetries:     2,
			RequestTimeout: 30 * time.Second,
			ExecTimeout:    10 * time.Second,
			WordWrap:       80,
			MCPTimeout:     15 * time.Second,
		},
	}
}
