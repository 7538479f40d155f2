package stream

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dotcommander/yagent/internal/proto"
)

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithTextObserver registers fn to receive every text fragment as soon as it
// is folded in.
func WithTextObserver(fn func(string)) Option {
	return func(a *Accumulator) { a.onText = fn }
}

// WithIDBase sets the suffix used for synthesized tool call IDs.
func WithIDBase(base string) Option {
	return func(a *Accumulator) { a.idBase = base }
}

// Accumulator folds deltas of a single streamed response.
//
// Tool call fragments are keyed by their position index: two deltas with the
// same index belong to the same call whether or not the id is repeated.
type Accumulator struct {
	text   strings.Builder
	calls  map[int]*callBuilder
	idBase string
	onText func(string)
}

type callBuilder struct {
	id   string
	name string
	args strings.Builder
	// seen is set once the index carries an id, a name or arguments.
	seen bool
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(opts ...Option) *Accumulator {
	a := &Accumulator{
		calls:  map[int]*callBuilder{},
		idBase: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add folds one delta.
func (a *Accumulator) Add(d proto.Delta) {
	if d.Content != "" {
		a.text.WriteString(d.Content)
		if a.onText != nil {
			a.onText(d.Content)
		}
	}
	for _, tc := range d.ToolCalls {
		idx := tc.Position()
		b, ok := a.calls[idx]
		if !ok {
			b = &callBuilder{id: fmt.Sprintf("call_%d_%s", idx, a.idBase)}
			a.calls[idx] = b
		}
		if tc.ID != "" {
			b.id = tc.ID
			b.seen = true
		}
		if tc.Function.Name != "" {
			b.name = tc.Function.Name
			b.seen = true
		}
		if tc.Function.Arguments != "" {
			b.args.WriteString(tc.Function.Arguments)
			b.seen = true
		}
	}
}

// Result returns the accumulated text and the tool calls ordered by index.
// Indexes that never carried an id, a name or arguments are left out.
func (a *Accumulator) Result() (string, []proto.ToolCall) {
	indexes := make([]int, 0, len(a.calls))
	for idx, b := range a.calls {
		if b.seen {
			indexes = append(indexes, idx)
		}
	}
	slices.Sort(indexes)

	calls := make([]proto.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		b := a.calls[idx]
		calls = append(calls, proto.ToolCall{
			ID:   b.id,
			Type: "function",
			Function: proto.Function{
				Name:      b.name,
				Arguments: b.args.String(),
			},
		})
	}
	return a.text.String(), calls
}

// Reset clears accumulated state but keeps the options, so a replay yields
// the same synthesized IDs.
func (a *Accumulator) Reset() {
	a.text.Reset()
	a.calls = map[int]*callBuilder{}
}
