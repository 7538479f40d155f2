package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// ErrClosed is returned by Worker.Send once the worker stopped serving.
var ErrClosed = errors.New("sandbox worker closed")

// Worker executes JavaScript in a fresh goja runtime per request. Scripts
// only see the ECMAScript builtins and a console that writes to stdout.
type Worker struct {
	requests chan Request
	done     chan struct{}
	timeout  time.Duration
}

// NewWorker creates a worker; call Serve to start it.
func NewWorker(timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Worker{
		requests: make(chan Request),
		done:     make(chan struct{}),
		timeout:  timeout,
	}
}

// Send implements Transport.
func (w *Worker) Send(ctx context.Context, req Request) error {
	select {
	case w.requests <- req:
		return nil
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve runs requests until ctx is done, passing each reply to deliver.
func (w *Worker) Serve(ctx context.Context, deliver func(Reply)) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			if req.Type != TypeExecute {
				continue
			}
			go func() {
				deliver(w.run(req))
			}()
		}
	}
}

// StartLocal starts a Worker bound to a new Bridge and returns the bridge.
// The worker stops when ctx is done.
func StartLocal(ctx context.Context, opts ...Option) *Bridge {
	b := New(nil, opts...)
	w := NewWorker(b.timeout)
	b.transport = w
	go w.Serve(ctx, func(r Reply) { b.Deliver(r) })
	return b
}

func (w *Worker) run(req Request) Reply {
	reply := Reply{Type: TypeExecuteResult, Token: req.Token}

	vm := goja.New()
	var stdout strings.Builder
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, format(arg))
		}
		stdout.WriteString(strings.Join(parts, " "))
		stdout.WriteByte('\n')
		return goja.Undefined()
	}
	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(name, logFn)
	}
	_ = vm.Set("console", console)

	timer := time.AfterFunc(w.timeout, func() { vm.Interrupt(ErrTimeout) })
	defer timer.Stop()

	value, err := vm.RunString(req.Code)
	if err != nil {
		reply.Stdout = stdout.String()
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			reply.Error = ErrTimeout.Error()
		} else {
			reply.Error = err.Error()
		}
		return reply
	}

	reply.OK = true
	reply.Stdout = stdout.String()
	if reply.Stdout == "" && value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		reply.Stdout = format(value)
	}
	return reply
}

func format(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if _, isObject := v.(*goja.Object); isObject {
		if _, isFunc := goja.AssertFunction(v); !isFunc {
			if bts, err := json.Marshal(v.Export()); err == nil {
				return string(bts)
			}
		}
	}
	return v.String()
}
