package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func TestGradientText(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.TrueColor)
	s := MakeStyles(r)

	t.Run("short strings untouched", func(t *testing.T) {
		require.Equal(t, "ya", GradientText(s.AppName, "ya"))
	})

	t.Run("colors every rune", func(t *testing.T) {
		out := GradientText(s.AppName, "yagént")
		require.NotEqual(t, "yagént", out)
		require.Equal(t, 6, strings.Count(out, "\x1b[0m"))
	})
}

func TestGradientRamp(t *testing.T) {
	ramp := GradientRamp("#000000", "#ffffff", 4)
	require.Len(t, ramp, 4)
	require.NotEqual(t, ramp[0], ramp[3])
}

func TestBanner(t *testing.T) {
	s := MakeStyles(lipgloss.NewRenderer(&bytes.Buffer{}))
	require.Equal(t, "yagent chat", Banner(s, "yagent", "chat"))
}

func TestMakeStyles(t *testing.T) {
	s := MakeStyles(lipgloss.NewRenderer(&bytes.Buffer{}))
	require.Equal(t, "ERROR", s.ErrorHeader.String())
	require.Equal(t, ",", s.FlagComma.String())
}
