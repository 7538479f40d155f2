package present

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	gradientFrom = "#F967DC"
	gradientTo   = "#6B50FF"

	minGradientRunes = 3
)

// GradientRamp blends from into to over n steps in Luv space. Invalid hex
// colors blend from black.
func GradientRamp(from, to string, n int) []lipgloss.Color {
	start, _ := colorful.Hex(from)
	end, _ := colorful.Hex(to)
	ramp := make([]lipgloss.Color, n)
	for i := range n {
		ramp[i] = lipgloss.Color(start.BlendLuv(end, float64(i)/float64(n)).Hex())
	}
	return ramp
}

// GradientText colors each rune of str along the app palette. Strings of
// fewer than three runes are returned unchanged.
func GradientText(base lipgloss.Style, str string) string {
	n := utf8.RuneCountInString(str)
	if n < minGradientRunes {
		return str
	}
	ramp := GradientRamp(gradientFrom, gradientTo, n)
	var b strings.Builder
	i := 0
	for _, r := range str {
		b.WriteString(base.Foreground(ramp[i]).Render(string(r)))
		i++
	}
	return b.String()
}

// Banner renders the chat greeting: the gradient app name followed by a
// dimmed hint.
func Banner(s Styles, name, hint string) string {
	return GradientText(s.AppName, name) + " " + s.Comment.Render(hint)
}
