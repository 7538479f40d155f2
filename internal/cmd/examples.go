package cmd

import (
	"math/rand/v2"
	"regexp"

	"github.com/dotcommander/yagent/internal/present"
)

var examples = map[string]string{
	"Ask about something that just happened": `yagent "what's the latest news on the rust 2024 edition?"`,
	"Let the agent run some JavaScript":      `yagent "use js_exec to compute the 30th fibonacci number"`,
	"Summarize a file and keep the session":  `cat notes.md | yagent -t notes "summarize these notes"`,
	"Pick up where you left off":             `yagent -C "and how does that compare to go?"`,
}

var (
	quoteRe = regexp.MustCompile(`"([^"\\]|\\.)*"`)
	pipeRe  = regexp.MustCompile(`\|`)
)

func randomExample() string {
	keys := make([]string, 0, len(examples))
	for k := range examples {
		keys = append(keys, k)
	}
	return keys[rand.IntN(len(keys))] //nolint:gosec
}

func cheapHighlighting(s present.Styles, code string) string {
	code = quoteRe.ReplaceAllStringFunc(code, func(x string) string {
		return s.Quote.Render(x)
	})
	code = pipeRe.ReplaceAllStringFunc(code, func(x string) string {
		return s.Pipe.Render(x)
	})
	return code
}
