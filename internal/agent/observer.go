package agent

import "github.com/dotcommander/yagent/internal/proto"

// NoticeKind classifies a Notice.
type NoticeKind int

// Notice kinds.
const (
	NoticeToolFailed NoticeKind = iota
	NoticeRetrying
	NoticeError
)

// Notice is a non-fatal, user-visible event.
type Notice struct {
	Kind    NoticeKind
	Tool    string
	Message string
}

// Observer receives session progress. Calls for a round happen on the
// goroutine running Send, except OnNotice which tools may trigger
// concurrently.
type Observer interface {
	OnRound(n int)
	OnText(delta string)
	OnToolResult(call proto.ToolCall, result proto.ToolResult)
	OnNotice(n Notice)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnRound(int)                                   {}
func (NopObserver) OnText(string)                                 {}
func (NopObserver) OnToolResult(proto.ToolCall, proto.ToolResult) {}
func (NopObserver) OnNotice(Notice)                               {}

var _ Observer = NopObserver{}
