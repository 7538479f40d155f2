package agent

import (
	"regexp"

	"github.com/dotcommander/yagent/internal/proto"
)

const recencyHint = "User requested recent information. Consider calling google_search."

var recencyRe = regexp.MustCompile(`(?i)\b(news|recent|latest|today|breaking)\b`)

// SteeringHint returns a disposable system message nudging the model towards
// web search when userText asks for recent information.
func SteeringHint(userText string) (proto.Message, bool) {
	if !recencyRe.MatchString(userText) {
		return proto.Message{}, false
	}
	return proto.Message{Role: proto.RoleSystem, Content: recencyHint}, true
}
