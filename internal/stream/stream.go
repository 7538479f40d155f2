// Package stream folds streamed chat deltas into assistant text and tool
// calls.
package stream

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dotcommander/yagent/internal/proto"
)

// Stream is an in-flight streamed completion.
type Stream interface {
	// Next advances to the next delta. It returns false at the end of the
	// stream or on error.
	Next() bool
	// Current returns the delta Next advanced to.
	Current() (proto.Delta, error)
	// Err returns the error that stopped the stream, if any.
	Err() error
	// Close aborts the stream and releases the connection.
	Close() error
}

// DecodeChunk extracts the first choice's delta from a chat completion chunk.
// It reports false for chunks that carry no delta, or one that doesn't
// decode.
func DecodeChunk(payload json.RawMessage) (proto.Delta, bool) {
	res := gjson.GetBytes(payload, "choices.0.delta")
	if !res.Exists() || !res.IsObject() {
		return proto.Delta{}, false
	}
	var d proto.Delta
	if err := json.Unmarshal([]byte(res.Raw), &d); err != nil {
		return proto.Delta{}, false
	}
	return d, true
}
