package present

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

const (
	markdownTabWidth = 4
	defaultWordWrap  = 80
)

var (
	blankRuns = regexp.MustCompile(`\n{3,}`)

	// Chroma paints lexer errors with a red background, which is noisy for
	// partial code in tool transcripts.
	unsetChromaErrors = sync.OnceFunc(func() {
		styles.DarkStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)
		styles.LightStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)
	})
)

// RenderMarkdown renders a session transcript for the terminal. A
// non-positive wordWrap uses 80 columns.
func RenderMarkdown(input string, wordWrap int) (string, error) {
	unsetChromaErrors()
	if wordWrap <= 0 {
		wordWrap = defaultWordWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("new markdown renderer: %w", err)
	}

	out, err := r.Render(input)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	out = strings.TrimRightFunc(out, unicode.IsSpace)
	out = strings.ReplaceAll(out, "\t", strings.Repeat(" ", markdownTabWidth))
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return out + "\n", nil
}
