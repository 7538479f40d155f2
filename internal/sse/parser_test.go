package sse

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

const sampleStream = ": keepalive\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
	"event: ignored\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\r\n\r\n" +
	"data: {not json}\n\n" +
	"data:{\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"c1\"}]}}]}\n\n" +
	"data: [DONE]\n\n" +
	"data: {\"after\":\"done\"}\n\n"

func collect(t *testing.T, p *Parser, chunks ...string) []string {
	t.Helper()
	var out []string
	for _, c := range chunks {
		for _, payload := range p.Feed([]byte(c)) {
			out = append(out, string(payload))
		}
	}
	for _, payload := range p.Flush() {
		out = append(out, string(payload))
	}
	return out
}

func TestParserWhole(t *testing.T) {
	var p Parser
	got := collect(t, &p, sampleStream)
	require.Equal(t, []string{
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1"}]}}]}`,
	}, got)
	require.True(t, p.Done())
	require.Equal(t, 1, p.Dropped())
}

func TestParserSplitAnywhere(t *testing.T) {
	var whole Parser
	expected := collect(t, &whole, sampleStream)

	for i := 0; i <= len(sampleStream); i++ {
		for j := i; j <= len(sampleStream); j += 7 {
			var p Parser
			got := collect(t, &p, sampleStream[:i], sampleStream[i:j], sampleStream[j:])
			require.Equal(t, expected, got, "split at %d/%d", i, j)
		}
	}
}

func TestParserByteAtATime(t *testing.T) {
	var whole Parser
	expected := collect(t, &whole, sampleStream)

	chunks := make([]string, 0, len(sampleStream))
	for _, r := range []byte(sampleStream) {
		chunks = append(chunks, string(r))
	}
	var p Parser
	require.Equal(t, expected, collect(t, &p, chunks...))
}

func TestParserTrailingLineWithoutNewline(t *testing.T) {
	var p Parser
	require.Empty(t, p.Feed([]byte(`data: {"a":1}`)))
	require.Equal(t, []json.RawMessage{json.RawMessage(`{"a":1}`)}, p.Flush())
}

func TestParserIgnoresInputAfterSentinel(t *testing.T) {
	var p Parser
	require.Empty(t, p.Feed([]byte("data: [DONE]\n")))
	require.Empty(t, p.Feed([]byte("data: {\"a\":1}\n")))
	require.Empty(t, p.Flush())
}

func TestEvents(t *testing.T) {
	t.Run("one byte reads", func(t *testing.T) {
		r := iotest.OneByteReader(strings.NewReader(sampleStream))
		var got []string
		for payload, err := range Events(context.Background(), r) {
			require.NoError(t, err)
			got = append(got, string(payload))
		}
		require.Len(t, got, 3)
	})

	t.Run("parser keeps the drop count", func(t *testing.T) {
		p := &Parser{}
		var n int
		for _, err := range p.Events(context.Background(), strings.NewReader(sampleStream)) {
			require.NoError(t, err)
			n++
		}
		require.Equal(t, 3, n)
		require.Equal(t, 1, p.Dropped())
		require.True(t, p.Done())
	})

	t.Run("read error", func(t *testing.T) {
		r := io.MultiReader(strings.NewReader("data: {\"a\":1}\n"), iotest.ErrReader(io.ErrUnexpectedEOF))
		var payloads int
		var lastErr error
		for payload, err := range Events(context.Background(), r) {
			if err != nil {
				lastErr = err
				continue
			}
			require.JSONEq(t, `{"a":1}`, string(payload))
			payloads++
		}
		require.Equal(t, 1, payloads)
		require.ErrorIs(t, lastErr, io.ErrUnexpectedEOF)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		for _, err := range Events(ctx, strings.NewReader(sampleStream)) {
			require.ErrorIs(t, err, context.Canceled)
		}
	})
}
