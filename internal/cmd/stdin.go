package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dotcommander/yagent/internal/present"
)

const maxStdinBytes = 4 * 1024 * 1024

func drainStdin() {
	if present.IsInputTTY() {
		return
	}
	_, _ = io.Copy(io.Discard, os.Stdin)
}

// readStdin returns piped input, or "" when stdin is a terminal.
func readStdin() (string, error) {
	if present.IsInputTTY() {
		return "", nil
	}
	bts, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinBytes))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(bts)), nil
}

// joinPrompt combines prompt arguments and piped input.
func joinPrompt(args []string, stdin string) string {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	switch {
	case prompt == "":
		return stdin
	case stdin == "":
		return prompt
	default:
		return prompt + "\n\n" + stdin
	}
}
