package tools

import (
	"strings"

	"github.com/dotcommander/yagent/internal/proto"
)

// Snapshot is a read-only copy of the conversation handed to tools.
type Snapshot struct {
	messages []proto.Message
}

// NewSnapshot copies msgs.
func NewSnapshot(msgs []proto.Message) Snapshot {
	return Snapshot{messages: append([]proto.Message(nil), msgs...)}
}

// Messages returns a copy of the snapshot's messages.
func (s Snapshot) Messages() []proto.Message {
	return append([]proto.Message(nil), s.messages...)
}

// RecentUserText joins the content of the last maxTurns user messages.
func (s Snapshot) RecentUserText(maxTurns int) string {
	var users []string
	for _, msg := range s.messages {
		if msg.Role == proto.RoleUser {
			users = append(users, msg.Content)
		}
	}
	if len(users) > maxTurns {
		users = users[len(users)-maxTurns:]
	}
	return strings.Join(users, "\n")
}
