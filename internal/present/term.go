package present

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

func ttyCheck(f *os.File) func() bool {
	return sync.OnceValue(func() bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	})
}

var (
	isInputTTY  = ttyCheck(os.Stdin)
	isOutputTTY = ttyCheck(os.Stdout)
	isErrorTTY  = ttyCheck(os.Stderr)
)

// IsInputTTY reports whether stdin is a terminal.
func IsInputTTY() bool { return isInputTTY() }

// IsOutputTTY reports whether stdout is a terminal.
func IsOutputTTY() bool { return isOutputTTY() }

// IsErrorTTY reports whether stderr is a terminal. Prompts and banners go
// there.
func IsErrorTTY() bool { return isErrorTTY() }

var (
	stdoutRenderer = sync.OnceValue(lipgloss.DefaultRenderer)
	stderrRenderer = sync.OnceValue(func() *lipgloss.Renderer {
		return lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true))
	})

	stdoutStyles = sync.OnceValue(func() Styles { return MakeStyles(stdoutRenderer()) })
	stderrStyles = sync.OnceValue(func() Styles { return MakeStyles(stderrRenderer()) })
)

// StdoutRenderer returns the lipgloss renderer bound to stdout.
func StdoutRenderer() *lipgloss.Renderer { return stdoutRenderer() }

// StderrRenderer returns the lipgloss renderer bound to stderr.
func StderrRenderer() *lipgloss.Renderer { return stderrRenderer() }

// StdoutStyles returns the shared styles for answers and listings.
func StdoutStyles() Styles { return stdoutStyles() }

// StderrStyles returns the shared styles for notices, prompts and errors.
func StderrStyles() Styles { return stderrStyles() }
