package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
	"github.com/muurk/xshcfg/internal/ui"
	"github.com/muurk/xshcfg/internal/version"
)

// Application branding constants
const (
	AppName   = "XSH CONTROL PANEL"
	GitHubURL = "github.com/muurk/xshcfg"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72  // Minimum supported terminal width
	MaxContentWidth  = 120 // Maximum content width before capping
	DefaultWidth     = 80  // Used until the first WindowSizeMsg
	DefaultHeight    = 24
)

// Colors come from the shared ui palette
var (
	PrimaryColor   = ui.PrimaryColor
	BorderColor    = ui.PrimaryColor
	SubtleColor    = ui.MutedColor
	TextColor      = ui.TextColor
	ErrorColor     = ui.ErrorColor
	HighlightColor = ui.SuccessColor
)

var (
	// Section title (e.g., "WiFi")
	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				MarginTop(1)

	// Input label, unfocused
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(14)

	// Input label, focused
	FocusedLabelStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				Width(14)

	// Input label of a field the last submit rejected
	InvalidLabelStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true).
				Width(14)

	// Network row, unselected
	ListItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	// Network row under the cursor
	SelectedListItemStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	HintStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)
)

// StatusBannerStyle colours the status banner by severity
func StatusBannerStyle(sev protocol.Severity) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ui.SeverityColor(sev)).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.SeverityColor(sev)).
		Padding(0, 1)
}

// StateStyle colours the connection state shown in the header
func StateStyle(st session.State) lipgloss.Style {
	switch st {
	case session.StateOpen:
		return lipgloss.NewStyle().Foreground(ui.SuccessColor).Bold(true)
	case session.StateConnecting:
		return lipgloss.NewStyle().Foreground(ui.WarningColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ui.ErrorColor).Bold(true)
	}
}

// BuildHeaderContent creates header content with app name, version and
// connection state
func BuildHeaderContent(state string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + version.Version)

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", state, "  ", right)
}

// RenderApplicationContainer wraps a screen in the bordered full-terminal
// frame: header on top, help footer pinned to the bottom.
func RenderApplicationContainer(content, state, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= 0 {
		terminalWidth = DefaultWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth-4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent(state)),
		contentStyle.Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
