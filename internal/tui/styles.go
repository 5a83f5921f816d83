package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/muurk/rfqedit/internal/version"
)

// AppName is shown in the header.
const AppName = "RFQ EDITOR"

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	LabelWidth       = 26 // Width of the label column of the record panel
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = lipgloss.Color("#7D56F4")
	HighlightColor = lipgloss.Color("#43BF6D")
)

// Common styles
var (
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Width(LabelWidth).
			Foreground(SubtleColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(HighlightColor).
			Bold(true)

	EditableValueStyle = lipgloss.NewStyle().
				Underline(true)

	TabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(SubtleColor)

	ActiveTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	BadgeOnStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SecondaryColor).
			Bold(true).
			Padding(0, 1)

	BadgeOffStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(0, 1)

	HelpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)
)

// InlineEditorStyle returns styling for inline editors
func InlineEditorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.Border{Left: "┃"}, false, false, false, true).
		BorderForeground(PrimaryColor).
		PaddingLeft(1)
}

// RenderEditBadge renders the edit toggle with its on/off marker.
func RenderEditBadge(marker string) string {
	if marker == "1" {
		return BadgeOnStyle.Render("Edit (E) ON")
	}
	return BadgeOffStyle.Render("Edit (E) OFF")
}

// BuildHeaderContent creates header content with app name, record and badge
func BuildHeaderContent(record, badge string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	middle := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(record)

	return lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", middle, "  ", badge)
}

// RenderApplicationContainer wraps a screen with the header, a footer and an
// outer border filling the terminal.
func RenderApplicationContainer(header, content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Foreground(SubtleColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth-4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(footerText),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2)
	if terminalHeight > 2 {
		borderStyle = borderStyle.Height(terminalHeight - 2).AlignVertical(lipgloss.Top)
	}

	return borderStyle.Render(inner)
}

// RenderModal centers content over a dimmed background.
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// fit truncates or pads s to exactly width cells.
func fit(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) > width {
		return ansi.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-ansi.StringWidth(s))
}
