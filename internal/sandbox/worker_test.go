package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b := StartLocal(ctx, WithTimeout(time.Second))

	t.Run("console output", func(t *testing.T) {
		res := b.Execute(ctx, `console.log("a", 1, {b: 2}); console.error("oops")`)
		require.True(t, res.OK)
		require.Equal(t, "a 1 {\"b\":2}\noops\n", res.Stdout)
	})

	t.Run("expression value", func(t *testing.T) {
		res := b.Execute(ctx, `[1, 2, 3].map(x => x * 2)`)
		require.True(t, res.OK)
		require.Equal(t, "[2,4,6]", res.Stdout)
	})

	t.Run("thrown error", func(t *testing.T) {
		res := b.Execute(ctx, `console.log("before"); throw new Error("boom")`)
		require.False(t, res.OK)
		require.Contains(t, res.Error, "boom")
		require.Equal(t, "before\n", res.Stdout)
	})

	t.Run("no host access", func(t *testing.T) {
		res := b.Execute(ctx, `typeof require + "," + typeof process + "," + typeof fetch`)
		require.True(t, res.OK)
		require.Equal(t, "undefined,undefined,undefined", res.Stdout)
	})

	t.Run("fresh runtime per request", func(t *testing.T) {
		require.True(t, b.Execute(ctx, `globalThis.leak = 1`).OK)
		res := b.Execute(ctx, `typeof leak`)
		require.Equal(t, "undefined", res.Stdout)
	})
}

func TestLocalWorkerTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b := StartLocal(ctx, WithTimeout(50*time.Millisecond))

	res := b.Execute(ctx, `while (true) {}`)
	require.False(t, res.OK)
	require.Equal(t, ErrTimeout.Error(), res.Error)
}

func TestStartLocalSharesTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	for want, opts := range map[time.Duration][]Option{
		DefaultTimeout:  nil,
		2 * time.Second: {WithTimeout(2 * time.Second)},
	} {
		b := StartLocal(ctx, opts...)
		require.Equal(t, want, b.timeout)
		w, ok := b.transport.(*Worker)
		require.True(t, ok)
		require.Equal(t, want, w.timeout)
	}
}

func TestWorkerClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(time.Second)
	done := make(chan struct{})
	go func() {
		w.Serve(ctx, func(Reply) {})
		close(done)
	}()
	cancel()
	<-done
	require.ErrorIs(t, w.Send(context.Background(), Request{Type: TypeExecute}), ErrClosed)
}
