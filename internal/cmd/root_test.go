package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/proto"
)

func TestRunPrompt(t *testing.T) {
	rt := newTestRuntime(t, text("Hello", " world"))
	require.NoError(t, rt.runPrompt(context.Background(), "hi there"))
	require.Equal(t, "Hello world\n", rt.out.String())

	sent := rt.streamer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "gpt-4o-mini", sent[0].Model)
	require.Equal(t, proto.RoleSystem, sent[0].Messages[0].Role)
	require.Equal(t, "hi there", sent[0].Messages[1].Content)
	require.NotEmpty(t, sent[0].Tools)

	store, err := openSessionStore(&rt.cfg)
	require.NoError(t, err)
	list := store.Index.List()
	require.Len(t, list, 1)
	require.Equal(t, "hi there", list[0].Title)
	require.Equal(t, 2, list[0].Messages)
	require.Equal(t, "openai", list[0].Provider)

	var msgs []proto.Message
	require.NoError(t, store.Transcripts.Read(list[0].ID, &msgs))
	require.Equal(t, []proto.Message{
		{Role: proto.RoleUser, Content: "hi there"},
		{Role: proto.RoleAssistant, Content: "Hello world"},
	}, msgs)
}

func TestRunPromptNoInput(t *testing.T) {
	rt := newTestRuntime(t)
	err := rt.runPrompt(context.Background(), "")
	var e errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "You haven't provided any prompt input.", e.Reason)
	require.Empty(t, rt.streamer.sent())
}

func TestRunPromptContinueLast(t *testing.T) {
	rt := newTestRuntime(t, text("first answer"), text("second answer"))
	require.NoError(t, rt.runPrompt(context.Background(), "first"))

	rt.cfg.ContinueLast = true
	require.NoError(t, rt.runPrompt(context.Background(), "second"))

	sent := rt.streamer.sent()
	require.Len(t, sent, 2)
	var contents []string
	for _, m := range sent[1].Messages[1:] {
		contents = append(contents, m.Content)
	}
	require.Equal(t, []string{"first", "first answer", "second"}, contents)

	store, err := openSessionStore(&rt.cfg)
	require.NoError(t, err)
	list := store.Index.List()
	require.Len(t, list, 1)
	require.Equal(t, 4, list[0].Messages)
}

func TestRunPromptNoCache(t *testing.T) {
	t.Run("nothing saved", func(t *testing.T) {
		rt := newTestRuntime(t, text("ok"))
		rt.cfg.NoCache = true
		require.NoError(t, rt.runPrompt(context.Background(), "hi"))

		store, err := openSessionStore(&rt.cfg)
		require.NoError(t, err)
		require.Empty(t, store.Index.List())
	})

	t.Run("cannot continue", func(t *testing.T) {
		rt := newTestRuntime(t)
		rt.cfg.NoCache = true
		rt.cfg.ContinueLast = true
		var e errs.Error
		require.ErrorAs(t, rt.runPrompt(context.Background(), "hi"), &e)
		require.Equal(t, "Cannot continue a session with --no-cache.", e.Reason)
	})
}

func TestRunPromptToolRound(t *testing.T) {
	rt := newTestRuntime(t,
		toolCall("call_1", "js_exec", `{"code":"console.log(6*7)"}`),
		text("The answer is 42."),
	)
	rt.cfg.Quiet = false
	require.NoError(t, rt.runPrompt(context.Background(), "compute six times seven"))
	require.Equal(t, "The answer is 42.\n", rt.out.String())
	require.Contains(t, rt.errOut.String(), "js_exec")
	require.Contains(t, rt.errOut.String(), "SAVED")

	sent := rt.streamer.sent()
	require.Len(t, sent, 2)
	last := sent[1].Messages[len(sent[1].Messages)-1]
	require.Equal(t, proto.RoleTool, last.Role)
	require.Equal(t, "call_1", last.ToolCallID)
	require.Equal(t, "js_exec", last.Name)
	require.Contains(t, last.Content, "42")
}

func TestRunPromptFailure(t *testing.T) {
	rt := newTestRuntime(t)
	rt.cfg.MaxRetries = 0
	err := rt.runPrompt(context.Background(), "hi")
	require.Error(t, err)

	// the prompt is kept so the session can be continued
	store, serr := openSessionStore(&rt.cfg)
	require.NoError(t, serr)
	require.Len(t, store.Index.List(), 1)
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", CommitSHA: "0123456789abcdef"}, newTestRuntime(t).cfg, nil)
	require.Equal(t, "1.2.3", cmd.Version)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"chat", "history", "config", "mcp", "tools", "roles", "man"} {
		require.Contains(t, names, want)
	}
}
