package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yagent/internal/agent"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/proto"
)

type fakeChat struct {
	mu      sync.Mutex
	sent    []string
	cleared int
	msgs    []proto.Message
	// send overrides the default echo behaviour.
	send func(ctx context.Context, text string) (agent.Outcome, error)
}

func (f *fakeChat) Send(ctx context.Context, text string) (agent.Outcome, error) {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.msgs = append(f.msgs, proto.Message{Role: proto.RoleUser, Content: text})
	f.mu.Unlock()
	if f.send != nil {
		return f.send(ctx, text)
	}
	return agent.Done, nil
}

func (f *fakeChat) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.msgs = nil
	return nil
}

func (f *fakeChat) Messages() []proto.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]proto.Message(nil), f.msgs...)
}

func testREPL(sess chatSession, interrupts chan os.Signal) (*repl, *bytes.Buffer, *[]int) {
	out := &bytes.Buffer{}
	var saves []int
	pr, _, _ := testPrinter(false)
	return &repl{
		sess:       sess,
		pr:         pr,
		interrupts: interrupts,
		out:        out,
		errOut:     out,
		styles:     present.MakeStyles(lipgloss.NewRenderer(out)),
		save: func(msgs []proto.Message) error {
			saves = append(saves, len(msgs))
			return nil
		},
	}, out, &saves
}

func TestREPL(t *testing.T) {
	t.Run("commands", func(t *testing.T) {
		sess := &fakeChat{}
		r, out, saves := testREPL(sess, make(chan os.Signal))
		in := strings.NewReader("hello\n\n/help\n/clear\nagain\n/exit\nignored\n")
		require.NoError(t, r.run(context.Background(), in, "first"))

		require.Equal(t, []string{"first", "hello", "again"}, sess.sent)
		require.Equal(t, 1, sess.cleared)
		require.Equal(t, []int{1, 2, 1}, *saves)
		require.Contains(t, out.String(), "/clear")
		require.Contains(t, out.String(), "Conversation cleared.")
	})

	t.Run("eof quits", func(t *testing.T) {
		sess := &fakeChat{}
		r, _, _ := testREPL(sess, make(chan os.Signal))
		require.NoError(t, r.run(context.Background(), strings.NewReader("one"), ""))
		require.Equal(t, []string{"one"}, sess.sent)
	})

	t.Run("interrupt cancels the answer in progress", func(t *testing.T) {
		started := make(chan struct{})
		sess := &fakeChat{send: func(ctx context.Context, _ string) (agent.Outcome, error) {
			close(started)
			<-ctx.Done()
			return agent.Cancelled, nil
		}}
		interrupts := make(chan os.Signal, 1)
		r, out, saves := testREPL(sess, interrupts)

		go func() {
			<-started
			interrupts <- os.Interrupt
		}()
		require.NoError(t, r.run(context.Background(), strings.NewReader("slow question\n"), ""))
		require.Contains(t, out.String(), "Cancelled.")
		require.Equal(t, []int{1}, *saves)
	})

	t.Run("failures keep the repl going", func(t *testing.T) {
		calls := 0
		sess := &fakeChat{send: func(context.Context, string) (agent.Outcome, error) {
			calls++
			if calls == 1 {
				return agent.Failed, os.ErrDeadlineExceeded
			}
			return agent.Done, nil
		}}
		r, out, _ := testREPL(sess, make(chan os.Signal))
		require.NoError(t, r.run(context.Background(), strings.NewReader("a\nb\n"), ""))
		require.Equal(t, []string{"a", "b"}, sess.sent)
		require.Contains(t, out.String(), os.ErrDeadlineExceeded.Error())
	})
}

func TestRunChat(t *testing.T) {
	rt := newTestRuntime(t, text("hi!"), text("bye!"))
	interrupts := make(chan os.Signal)
	require.NoError(t, rt.runChat(context.Background(), strings.NewReader("how are you\n"), interrupts, "hello"))
	require.Contains(t, rt.out.String(), "hi!\n")
	require.Contains(t, rt.out.String(), "bye!\n")

	store, err := openSessionStore(&rt.cfg)
	require.NoError(t, err)
	list := store.Index.List()
	require.Len(t, list, 1)
	require.Equal(t, 4, list[0].Messages)
	require.Equal(t, "how are you", list[0].Title)
}
