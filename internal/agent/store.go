package agent

import "github.com/dotcommander/yagent/internal/proto"

// Store is the append-only conversation log replayed to the model each
// round. It is not safe for concurrent use; Session serializes access.
type Store struct {
	msgs []proto.Message
}

// NewStore creates a store seeded with msgs.
func NewStore(msgs ...proto.Message) *Store {
	return &Store{msgs: append([]proto.Message(nil), msgs...)}
}

// Append adds messages at the end.
func (s *Store) Append(msgs ...proto.Message) {
	s.msgs = append(s.msgs, msgs...)
}

// Messages returns a copy of the log.
func (s *Store) Messages() []proto.Message {
	return append([]proto.Message(nil), s.msgs...)
}

// Reset empties the log.
func (s *Store) Reset() { s.msgs = nil }
