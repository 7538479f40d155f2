package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/dotcommander/yagent/internal/agent"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/llm"
	imcp "github.com/dotcommander/yagent/internal/mcp"
	"github.com/dotcommander/yagent/internal/proto"
	"github.com/dotcommander/yagent/internal/sandbox"
	"github.com/dotcommander/yagent/internal/tools"
)

// startSession wires the LLM client, the tools and the sandbox into a new
// agent session seeded with history. The sandbox worker stops with ctx.
func (rt *runtime) startSession(ctx context.Context, pl sessionPlan, history []proto.Message, obs agent.Observer) (*agent.Session, error) {
	cfg := &rt.cfg
	cfg.Provider = pl.Provider
	cfg.Model = pl.Model
	log := rt.logger()

	httpClient, err := llm.NewHTTPClient(cfg.HTTPProxy, cfg.RequestTimeout)
	if err != nil {
		return nil, errs.Wrap(err, "Could not set up the HTTP client.")
	}

	streamer := rt.streamer
	if streamer == nil {
		provider, err := cfg.LookupProvider()
		if err != nil {
			return nil, err
		}
		key, err := cfg.ResolveAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		streamer = llm.New(llm.Config{
			BaseURL:    provider.BaseURL,
			APIKey:     key,
			HTTPClient: httpClient,
			Logger:     log.WithName("llm"),
		})
	}

	system, err := cfg.SystemPrompt(ctx)
	if err != nil {
		return nil, err
	}

	dispatcher, err := rt.newDispatcher(ctx, log, httpClient, obs)
	if err != nil {
		return nil, err
	}

	return agent.New(
		streamer,
		dispatcher,
		agent.Config{
			Model:      cfg.Model,
			System:     system,
			MaxRounds:  cfg.MaxRounds,
			MaxRetries: cfg.MaxRetries,
		},
		agent.WithObserver(obs),
		agent.WithLogger(log.WithName("agent")),
		agent.WithHistory(history),
	), nil
}

// newDispatcher registers the built-in tools plus the tools of every
// enabled MCP server. A server that cannot be listed is reported and
// skipped.
func (rt *runtime) newDispatcher(ctx context.Context, log logr.Logger, httpClient *http.Client, obs agent.Observer) (*tools.Dispatcher, error) {
	cfg := &rt.cfg
	d := tools.NewDispatcher(
		tools.WithLogger(log.WithName("tools")),
		tools.WithNotifier(func(tool string, err error) {
			obs.OnNotice(agent.Notice{Kind: agent.NoticeToolFailed, Tool: tool, Message: err.Error()})
		}),
		tools.WithConcurrency(cfg.ToolLimit),
	)

	bridge := sandbox.StartLocal(ctx,
		sandbox.WithTimeout(cfg.ExecTimeout),
		sandbox.WithLogger(log.WithName("sandbox")),
	)
	if err := d.Register(
		&tools.GoogleSearch{Key: cfg.GoogleKey, CX: cfg.GoogleCX, Endpoint: cfg.SearchURL, HTTPClient: httpClient},
		&tools.AIPipe{URL: cfg.AIPipeURL, Token: cfg.AIPipeToken, HTTPClient: httpClient},
		&tools.JSExec{Executor: bridge},
	); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	svc := imcp.New(cfg, imcp.WithLogger(log.WithName("mcp")))
	if !hasEnabledServers(svc) {
		return d, nil
	}
	byServer, err := svc.Tools(ctx)
	if err != nil {
		obs.OnNotice(agent.Notice{Kind: agent.NoticeError, Message: err.Error()})
		return d, nil
	}
	if err := d.Register(tools.NewMCPHandlers(svc, byServer)...); err != nil {
		return nil, errs.Wrap(err, "Could not register MCP tools.")
	}
	return d, nil
}

func hasEnabledServers(svc *imcp.Service) bool {
	for range svc.EnabledServers() {
		return true
	}
	return false
}
