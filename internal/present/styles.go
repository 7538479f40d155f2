package present

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles shared by command output.
type Styles struct {
	AppName      lipgloss.Style
	CliArgs      lipgloss.Style
	Comment      lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
	Flag         lipgloss.Style
	FlagComma    lipgloss.Style
	FlagDesc     lipgloss.Style
	InlineCode   lipgloss.Style
	Link         lipgloss.Style
	Pipe         lipgloss.Style
	Quote        lipgloss.Style
	ID           lipgloss.Style
	Timeago      lipgloss.Style
	ToolName     lipgloss.Style
	Warning      lipgloss.Style
}

// MakeStyles builds Styles bound to r.
func MakeStyles(r *lipgloss.Renderer) (s Styles) {
	const horizontalEdgePadding = 2
	s.AppName = r.NewStyle().Bold(true)
	s.CliArgs = r.NewStyle().Foreground(lipgloss.Color("#585858"))
	s.Comment = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#757575", Dark: "#757575"})
	s.ErrorHeader = r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR")
	s.ErrorDetails = s.Comment
	s.ErrPadding = r.NewStyle().Padding(0, horizontalEdgePadding)
	s.Flag = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true)
	s.FlagComma = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5DD6C0", Dark: "#427C72"}).SetString(",")
	s.FlagDesc = s.Comment
	s.InlineCode = r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Background(lipgloss.AdaptiveColor{Light: "#E3E3E3", Dark: "#3A3A3A"}).Padding(0, 1)
	s.Link = r.NewStyle().Foreground(lipgloss.Color("#00AF87")).Underline(true)
	s.Quote = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF71D0", Dark: "#FF78D2"})
	s.Pipe = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"})
	s.ID = s.Flag
	s.Timeago = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999", Dark: "#555"})
	s.ToolName = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"}).Bold(true)
	s.Warning = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D78700", Dark: "#FFAF00"})
	return s
}
