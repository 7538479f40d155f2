// Package sse decodes the line-oriented server-sent-event framing used by
// OpenAI-compatible streaming endpoints.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/tidwall/gjson"
)

const (
	// Marker prefixes every event line.
	Marker = "data:"
	// Sentinel ends the stream.
	Sentinel = "[DONE]"

	readSize = 4 * 1024
)

// Parser splits arbitrary byte chunks into JSON payloads.
//
// Lines may be split across chunks; an incomplete line is kept until its
// newline arrives (or Flush is called at EOF). Lines without the marker are
// ignored and payloads that are not valid JSON are dropped.
type Parser struct {
	buf     []byte
	done    bool
	dropped int
}

// Feed appends chunk to the internal buffer and returns every complete
// payload found so far.
func (p *Parser) Feed(chunk []byte) []json.RawMessage {
	if p.done {
		return nil
	}
	p.buf = append(p.buf, chunk...)

	var out []json.RawMessage
	consumed := 0
	for !p.done {
		i := bytes.IndexByte(p.buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := p.buf[consumed : consumed+i]
		consumed += i + 1
		if payload, ok := p.decodeLine(line); ok {
			out = append(out, payload)
		}
	}

	switch {
	case p.done:
		p.buf = nil
	case consumed > 0:
		p.buf = append(p.buf[:0:0], p.buf[consumed:]...)
	}
	return out
}

// Flush decodes a trailing line that was never newline-terminated.
func (p *Parser) Flush() []json.RawMessage {
	if p.done || len(p.buf) == 0 {
		p.buf = nil
		return nil
	}
	line := p.buf
	p.buf = nil
	if payload, ok := p.decodeLine(line); ok {
		return []json.RawMessage{payload}
	}
	return nil
}

// Done reports whether the sentinel was seen.
func (p *Parser) Done() bool { return p.done }

// Dropped returns how many marker lines carried malformed JSON.
func (p *Parser) Dropped() int { return p.dropped }

func (p *Parser) decodeLine(raw []byte) (json.RawMessage, bool) {
	line := bytes.TrimSpace(raw)
	data, ok := bytes.CutPrefix(line, []byte(Marker))
	if !ok {
		return nil, false
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false
	}
	if string(data) == Sentinel {
		p.done = true
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		p.dropped++
		return nil, false
	}
	return append(json.RawMessage(nil), data...), true
}

// Events lazily decodes payloads from r until EOF, the sentinel, a read
// error, or ctx cancellation.
func Events(ctx context.Context, r io.Reader) iter.Seq2[json.RawMessage, error] {
	return new(Parser).Events(ctx, r)
}

// Events is the package-level Events folding into p, so Dropped can be read
// once the sequence ends.
func (p *Parser) Events(ctx context.Context, r io.Reader) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		buf := make([]byte, readSize)
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			n, err := r.Read(buf)
			if n > 0 {
				for _, payload := range p.Feed(buf[:n]) {
					if !yield(payload, nil) {
						return
					}
				}
				if p.Done() {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				for _, payload := range p.Flush() {
					if !yield(payload, nil) {
						return
					}
				}
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield(nil, fmt.Errorf("read stream: %w", err))
				return
			}
		}
	}
}
