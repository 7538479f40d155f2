package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dotcommander/yagent/internal/agent"
	"github.com/dotcommander/yagent/internal/present"
	"github.com/dotcommander/yagent/internal/proto"
)

// printer streams the answer to out and tool activity to errOut.
type printer struct {
	out    io.Writer
	errOut io.Writer
	styles present.Styles
	quiet  bool

	mu      sync.Mutex
	midLine bool
}

var _ agent.Observer = (*printer)(nil)

func newPrinter(out, errOut io.Writer, styles present.Styles, quiet bool) *printer {
	return &printer{out: out, errOut: errOut, styles: styles, quiet: quiet}
}

func (p *printer) OnRound(n int) {
	if n > 1 {
		p.breakLine()
	}
}

func (p *printer) OnText(delta string) {
	if delta == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, delta)
	p.midLine = !strings.HasSuffix(delta, "\n")
}

func (p *printer) OnToolResult(call proto.ToolCall, res proto.ToolResult) {
	if p.quiet {
		return
	}
	status := p.styles.Comment.Render("ok")
	if res.IsError {
		status = p.styles.Warning.Render("failed")
	}
	p.breakLine()
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.errOut, "%s %s\n", p.styles.ToolName.Render("> "+call.Function.Name), status)
}

func (p *printer) OnNotice(n agent.Notice) {
	if p.quiet && n.Kind != agent.NoticeError {
		return
	}
	msg := n.Message
	if n.Tool != "" {
		msg = n.Tool + ": " + msg
	}
	p.breakLine()
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.errOut, p.styles.Warning.Render("! "+msg))
}

// breakLine ends a partially written answer line.
func (p *printer) breakLine() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.midLine {
		_, _ = io.WriteString(p.out, "\n")
		p.midLine = false
	}
}

// finish terminates the streamed answer.
func (p *printer) finish() {
	p.breakLine()
}
