package config

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/caarlos0/go-shellwords"

	"github.com/dotcommander/yagent/internal/errs"
)

// Provider describes an OpenAI-compatible endpoint.
type Provider struct {
	Name    string
	BaseURL string
	// KeyEnv is read when no key is configured explicitly.
	KeyEnv string
	// KeyURL is where users can grab a key. Empty means no key is needed.
	KeyURL string
}

var providers = map[string]Provider{
	"openai": {
		Name:    "openai",
		BaseURL: "https://api.openai.com/v1",
		KeyEnv:  "OPENAI_API_KEY",
		KeyURL:  "https://platform.openai.com/account/api-keys",
	},
	"openrouter": {
		Name:    "openrouter",
		BaseURL: "https://openrouter.ai/api/v1",
		KeyEnv:  "OPENROUTER_API_KEY",
		KeyURL:  "https://openrouter.ai/keys",
	},
	"groq": {
		Name:    "groq",
		BaseURL: "https://api.groq.com/openai/v1",
		KeyEnv:  "GROQ_API_KEY",
		KeyURL:  "https://console.groq.com/keys",
	},
	"ollama": {
		Name:    "ollama",
		BaseURL: "http://localhost:11434/v1",
	},
	"custom": {
		Name: "custom",
	},
}

// Providers returns the known provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupProvider resolves the configured provider, with base-url applied.
func (c *Config) LookupProvider() (Provider, error) {
	p, ok := providers[c.Provider]
	if !ok {
		return Provider{}, errs.Error{
			Err:    errs.UserErrorf("Known providers are: %s", strings.Join(Providers(), ", ")),
			Reason: fmt.Sprintf("Unknown provider %q.", c.Provider),
		}
	}
	if c.BaseURL != "" {
		p.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	}
	if p.BaseURL == "" {
		return Provider{}, errs.Error{
			Err:    errs.MissingCredential("base-url"),
			Reason: "The custom provider needs a base-url.",
		}
	}
	return p, nil
}

// ResolveAPIKey finds the provider API key: api-key, then the api-key-env
// variable, then the output of api-key-cmd, then the provider's usual
// variable. Providers that need no key may resolve to "".
func (c *Config) ResolveAPIKey(ctx context.Context) (string, error) {
	p, err := c.LookupProvider()
	if err != nil {
		return "", err
	}

	key := c.APIKey
	if key == "" && c.APIKeyEnv != "" && c.APIKeyCmd == "" {
		key = os.Getenv(c.APIKeyEnv)
	}
	if key == "" && c.APIKeyCmd != "" {
		args, err := shellwords.Parse(c.APIKeyCmd)
		if err != nil {
			return "", errs.Error{Err: err, Reason: "Failed to parse api-key-cmd"}
		}
		if len(args) == 0 {
			return "", errs.Error{Err: errs.UserErrorf("api-key-cmd is blank"), Reason: "Failed to parse api-key-cmd"}
		}
		// #nosec G204 -- api-key-cmd is explicitly configured by the local user.
		out, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
		if err != nil {
			return "", errs.Error{Err: err, Reason: "Cannot exec api-key-cmd"}
		}
		key = strings.TrimSpace(string(out))
	}
	if key == "" && p.KeyEnv != "" {
		key = os.Getenv(p.KeyEnv)
	}
	if key != "" || (p.KeyURL == "" && p.KeyEnv == "") {
		return key, nil
	}

	env := p.KeyEnv
	if env == "" {
		env = "api-key"
	}
	reason := fmt.Sprintf("%s required; set %s or update %s.yml through %s config edit.", env, env, AppName, AppName)
	if p.KeyURL != "" {
		reason += " You can grab one at " + p.KeyURL
	}
	return "", errs.Error{Err: errs.MissingCredential("api-key", "api-key-env", "api-key-cmd"), Reason: reason}
}
