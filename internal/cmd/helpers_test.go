package cmd

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/llm"
	"github.com/dotcommander/yagent/internal/proto"
	"github.com/dotcommander/yagent/internal/stream"
)

type fakeStream struct {
	ctx    context.Context
	deltas []proto.Delta
	block  bool
	err    error
	cur    proto.Delta
}

func (s *fakeStream) Next() bool {
	if len(s.deltas) == 0 {
		if s.block {
			<-s.ctx.Done()
			s.err = s.ctx.Err()
		}
		return false
	}
	s.cur, s.deltas = s.deltas[0], s.deltas[1:]
	return true
}

func (s *fakeStream) Current() (proto.Delta, error) { return s.cur, nil }
func (s *fakeStream) Err() error                    { return s.err }
func (s *fakeStream) Close() error                  { return nil }

type reply func(ctx context.Context) (stream.Stream, error)

func text(parts ...string) reply {
	return func(ctx context.Context) (stream.Stream, error) {
		ds := make([]proto.Delta, 0, len(parts))
		for _, p := range parts {
			ds = append(ds, proto.Delta{Content: p})
		}
		return &fakeStream{ctx: ctx, deltas: ds}, nil
	}
}

func toolCall(id, name, args string) reply {
	return func(ctx context.Context) (stream.Stream, error) {
		index := 0
		return &fakeStream{ctx: ctx, deltas: []proto.Delta{{ToolCalls: []proto.ToolCallDelta{{
			Index:    &index,
			ID:       id,
			Function: proto.Function{Name: name, Arguments: args},
		}}}}}, nil
	}
}

type scriptedStreamer struct {
	mu       sync.Mutex
	replies  []reply
	requests []llm.Request
}

func (s *scriptedStreamer) Stream(ctx context.Context, req llm.Request) (stream.Stream, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	var r reply
	if len(s.replies) > 0 {
		r, s.replies = s.replies[0], s.replies[1:]
	}
	s.mu.Unlock()
	if r == nil {
		return nil, errors.New("unexpected request")
	}
	return r(ctx)
}

func (s *scriptedStreamer) sent() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

type testRuntime struct {
	*runtime
	out      *bytes.Buffer
	errOut   *bytes.Buffer
	streamer *scriptedStreamer
}

func newTestRuntime(tb testing.TB, replies ...reply) *testRuntime {
	tb.Helper()
	cfg := config.Default()
	cfg.CachePath = tb.TempDir()
	cfg.Quiet = true
	streamer := &scriptedStreamer{replies: replies}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &testRuntime{
		runtime: &runtime{
			cfg:      cfg,
			stdout:   out,
			stderr:   errOut,
			streamer: streamer,
		},
		out:      out,
		errOut:   errOut,
		streamer: streamer,
	}
}
