package sandbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport answers each request through reply, asynchronously.
type scriptedTransport struct {
	bridge *Bridge
	reply  func(Request) []Reply
	sent   []Request
	mu     sync.Mutex
}

func (s *scriptedTransport) Send(_ context.Context, req Request) error {
	s.mu.Lock()
	s.sent = append(s.sent, req)
	s.mu.Unlock()
	go func() {
		for _, r := range s.reply(req) {
			s.bridge.Deliver(r)
		}
	}()
	return nil
}

func newScripted(reply func(Request) []Reply, opts ...Option) (*Bridge, *scriptedTransport) {
	tr := &scriptedTransport{reply: reply}
	b := New(tr, opts...)
	tr.bridge = b
	return b, tr
}

func TestBridgeExecute(t *testing.T) {
	b, tr := newScripted(func(req Request) []Reply {
		return []Reply{{Type: TypeExecuteResult, Token: req.Token, OK: true, Stdout: "2\n"}}
	})

	res := b.Execute(context.Background(), "console.log(1+1)")
	require.Equal(t, Result{OK: true, Stdout: "2\n"}, res)
	require.Zero(t, b.Pending())
	require.Len(t, tr.sent, 1)
	require.Equal(t, TypeExecute, tr.sent[0].Type)
	require.NotEmpty(t, tr.sent[0].Token)
}

func TestBridgeIgnoresForeignReplies(t *testing.T) {
	b, _ := newScripted(func(req Request) []Reply {
		return []Reply{
			{Type: "something-else", Token: req.Token, OK: true, Stdout: "wrong type"},
			{Type: TypeExecuteResult, Token: "someone-else", OK: true, Stdout: "wrong token"},
			{Type: TypeExecuteResult, Token: req.Token, OK: false, Error: "boom"},
			{Type: TypeExecuteResult, Token: req.Token, OK: true, Stdout: "duplicate"},
		}
	})

	res := b.Execute(context.Background(), "throw new Error('boom')")
	require.Equal(t, Result{Error: "boom"}, res)
}

func TestBridgeTimeout(t *testing.T) {
	b, _ := newScripted(func(Request) []Reply { return nil }, WithTimeout(20*time.Millisecond))

	res := b.Execute(context.Background(), "while(true){}")
	require.False(t, res.OK)
	require.Equal(t, ErrTimeout.Error(), res.Error)
	require.Zero(t, b.Pending(), "waiter must be removed after a timeout")
	require.False(t, b.Deliver(Reply{Type: TypeExecuteResult, Token: "late"}))
}

func TestBridgeContextCancel(t *testing.T) {
	b, _ := newScripted(func(Request) []Reply { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := b.Execute(ctx, "1")
	require.False(t, res.OK)
	require.Equal(t, context.Canceled.Error(), res.Error)
	require.Zero(t, b.Pending())
}

func TestBridgeConcurrentRequestsDoNotCross(t *testing.T) {
	var n atomic.Int64
	b, _ := newScripted(func(req Request) []Reply {
		time.Sleep(time.Duration(len(req.Code)) * time.Millisecond)
		return []Reply{{Type: TypeExecuteResult, Token: req.Token, OK: true, Stdout: req.Code}}
	}, WithTokenFunc(func() string { return fmt.Sprintf("tok-%d", n.Add(1)) }))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := fmt.Sprintf("%0*d", 20-i, i)
			res := b.Execute(context.Background(), code)
			assert.True(t, res.OK)
			assert.Equal(t, code, res.Stdout)
		}()
	}
	wg.Wait()
	require.Zero(t, b.Pending())
}
