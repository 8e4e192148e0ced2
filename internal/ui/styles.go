package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/xshcfg/internal/protocol"
)

// Color palette shared by the console output and the control panel
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, X marks
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings
	InfoColor    = lipgloss.Color("#5FAFFF") // Blue - informational status
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
	DefaultPadding   = 2   // Default padding inside boxes
	SignalBarWidth   = 10  // Cells in a network signal bar
)

var (
	// HeaderTitleStyle is for the main command title (e.g., "NETWORK SCAN")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "xsh-cfg networks")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Device:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamValueStyle is for parameter values (e.g., "ws://192.168.4.1/ws")
	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)

	// SSIDStyle is for network names in scan results
	SSIDStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Width(32)

	// MutedStyle is for secondary text such as RSSI values
	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// Status markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
	InfoMarker    = "●"
)

// SeverityColor maps a status severity to its palette color
func SeverityColor(sev protocol.Severity) lipgloss.Color {
	switch sev {
	case protocol.SeveritySuccess:
		return SuccessColor
	case protocol.SeverityWarning:
		return WarningColor
	case protocol.SeverityError:
		return ErrorColor
	default:
		return InfoColor
	}
}

// SeverityMarker maps a status severity to its line marker
func SeverityMarker(sev protocol.Severity) string {
	switch sev {
	case protocol.SeveritySuccess:
		return SuccessMarker
	case protocol.SeverityWarning:
		return WarningMarker
	case protocol.SeverityError:
		return FailureMarker
	default:
		return InfoMarker
	}
}

// SeverityStyle returns the foreground style for a severity
func SeverityStyle(sev protocol.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SeverityColor(sev))
}

// SignalColor picks green, orange or red for a 0-100 signal percentage
func SignalColor(signal int) lipgloss.Color {
	switch {
	case signal >= 50:
		return SuccessColor
	case signal >= 25:
		return WarningColor
	default:
		return ErrorColor
	}
}

// RenderSignalBar draws a fixed-width bar for a 0-100 signal percentage
func RenderSignalBar(signal int) string {
	if signal < 0 {
		signal = 0
	}
	if signal > 100 {
		signal = 100
	}
	filled := (signal*SignalBarWidth + 50) / 100
	bar := lipgloss.NewStyle().Foreground(SignalColor(signal)).Render(strings.Repeat("█", filled))
	return bar + MutedStyle.Render(strings.Repeat("░", SignalBarWidth-filled))
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// IsTerminal reports whether stdout is an interactive terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// SuccessBoxStyle returns the border style for success result boxes
func SuccessBoxStyle(width int) lipgloss.Style {
	return boxStyle(width, SuccessColor)
}

// ErrorBoxStyle returns the border style for error result boxes
func ErrorBoxStyle(width int) lipgloss.Style {
	return boxStyle(width, ErrorColor)
}

// WarningBoxStyle returns the border style for warning result boxes
func WarningBoxStyle(width int) lipgloss.Style {
	return boxStyle(width, WarningColor)
}

func boxStyle(width int, color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2)
}

// TroubleshootingBoxStyle returns the border style for troubleshooting sections
func TroubleshootingBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width - 12). // Indented within error box
		Padding(0, 1).
		MarginLeft(3)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
