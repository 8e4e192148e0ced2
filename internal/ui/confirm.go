package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and asks the user to type expected to
// proceed. It returns true only on an exact match.
func (p *Printer) Confirm(in io.Reader, title string, warnings []string, expected string) bool {
	lines := []string{
		"",
		lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
			Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}
	for _, w := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+w))
	}
	lines = append(lines, "")

	p.Println(WarningBoxStyle(p.width).Render(strings.Join(lines, "\n")))

	promptStyle := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	p.mu.Lock()
	_, _ = fmt.Fprint(p.out, promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", expected)))
	p.mu.Unlock()

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		p.Newline()
		return false
	}

	if strings.TrimSpace(input) == expected {
		return true
	}

	p.Println(MutedStyle.Render("  Operation cancelled."))
	return false
}

// ConfirmReboot asks before restarting the device
func (p *Printer) ConfirmReboot(in io.Reader, url string) bool {
	return p.Confirm(in, "REBOOT DEVICE", []string{
		"The device at " + url + " will restart immediately",
		"The connection will drop and is not re-established automatically",
		"Unsaved settings on the device are lost",
	}, "reboot")
}
