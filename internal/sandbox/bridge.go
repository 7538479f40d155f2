// Package sandbox runs untrusted code behind an isolation boundary and
// correlates each request with its single asynchronous reply.
package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Message types crossing the boundary.
const (
	TypeExecute       = "execute"
	TypeExecuteResult = "execute-result"
)

// DefaultTimeout bounds a single execution.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is reported when no reply arrives in time.
var ErrTimeout = errors.New("execution timed out")

// Request asks the other side to execute code.
type Request struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Code  string `json:"code"`
}

// Reply is the answer to a Request carrying the same token.
type Reply struct {
	Type   string `json:"type"`
	Token  string `json:"token"`
	OK     bool   `json:"ok"`
	Stdout string `json:"stdout"`
	Error  string `json:"error,omitempty"`
}

// Result is what an execution produced.
type Result struct {
	OK     bool   `json:"ok"`
	Stdout string `json:"stdout"`
	Error  string `json:"error,omitempty"`
}

// Transport carries requests across the boundary. Replies come back through
// Bridge.Deliver.
type Transport interface {
	Send(ctx context.Context, req Request) error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout sets the per-execution timeout. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(b *Bridge) { b.log = log }
}

// WithTokenFunc overrides correlation token generation.
func WithTokenFunc(fn func() string) Option {
	return func(b *Bridge) { b.newToken = fn }
}

// Bridge correlates execution requests with replies.
//
// Every Execute registers a one-shot waiter under a fresh token and removes
// it when it returns, whether a reply arrived or not.
type Bridge struct {
	transport Transport
	timeout   time.Duration
	newToken  func() string
	log       logr.Logger

	mu      sync.Mutex
	pending map[string]chan Reply
}

// New creates a Bridge sending requests over t.
func New(t Transport, opts ...Option) *Bridge {
	b := &Bridge{
		transport: t,
		timeout:   DefaultTimeout,
		newToken:  uuid.NewString,
		log:       logr.Discard(),
		pending:   map[string]chan Reply{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs code and waits for its reply, the timeout, or ctx.
// Failures are reported in the Result, never as a panic or a hang.
func (b *Bridge) Execute(ctx context.Context, code string) Result {
	token := b.newToken()
	ch := make(chan Reply, 1)

	b.mu.Lock()
	b.pending[token] = ch
	b.mu.Unlock()
	defer b.forget(token)

	if err := b.transport.Send(ctx, Request{Type: TypeExecute, Token: token, Code: code}); err != nil {
		return Result{Error: err.Error()}
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		return Result{OK: reply.OK, Stdout: reply.Stdout, Error: reply.Error}
	case <-timer.C:
		b.log.Info("execution timed out", "token", token, "timeout", b.timeout)
		return Result{Error: ErrTimeout.Error()}
	case <-ctx.Done():
		return Result{Error: ctx.Err().Error()}
	}
}

// Deliver hands a reply to its waiter. It reports false for replies of the
// wrong type, unknown tokens, and duplicates.
func (b *Bridge) Deliver(reply Reply) bool {
	if reply.Type != TypeExecuteResult {
		return false
	}
	b.mu.Lock()
	ch, ok := b.pending[reply.Token]
	if ok {
		delete(b.pending, reply.Token)
	}
	b.mu.Unlock()

	if !ok {
		b.log.V(1).Info("dropping reply without waiter", "token", reply.Token)
		return false
	}
	ch <- reply
	return true
}

// Pending returns the number of executions waiting for a reply.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) forget(token string) {
	b.mu.Lock()
	delete(b.pending, token)
	b.mu.Unlock()
}
