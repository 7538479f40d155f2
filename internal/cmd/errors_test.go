package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/present"
)

func TestWriteError(t *testing.T) {
	styles := present.MakeStyles(lipgloss.NewRenderer(&bytes.Buffer{}))

	t.Run("reason and details", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, styles, errs.Wrap(errors.New("connection refused"), "Could not reach the model."))
		require.Contains(t, b.String(), "ERROR")
		require.Contains(t, b.String(), "Could not reach the model.")
		require.Contains(t, b.String(), "connection refused")
	})

	t.Run("reason only", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, styles, errs.Error{Reason: "Nothing to send."})
		require.Contains(t, b.String(), "Nothing to send.")
		require.Equal(t, 1, bytes.Count(b.Bytes(), []byte("Nothing to send.")))
	})

	t.Run("flag error", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, styles, newFlagParseError(errors.New("unknown flag: --nope")))
		require.Regexp(t, `Flag\s+--nope\s+is missing\.`, b.String())
		require.Contains(t, b.String(), "yagent -h")
	})

	t.Run("plain error", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, styles, errors.New("boom"))
		require.Contains(t, b.String(), "boom")
		require.NotContains(t, b.String(), "ERROR")
	})
}
