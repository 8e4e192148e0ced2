package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
	"github.com/muurk/xshcfg/internal/ui"
)

// devicesMsg reports the end of an mDNS scan
type devicesMsg struct {
	devices []*discovery.Device
	err     error
}

// discoverCmd runs one scan off the Update goroutine
func (m Model) discoverCmd() tea.Cmd {
	discover := m.discover
	if discover == nil {
		return nil
	}
	return func() tea.Msg {
		devices, err := discover()
		return devicesMsg{devices: devices, err: err}
	}
}

func (m Model) handleDevices(msg devicesMsg) (tea.Model, tea.Cmd) {
	m.phase = phasePicking
	m.devices = msg.devices
	m.deviceCursor = 0

	switch {
	case msg.err != nil:
		m.setStatus(fmt.Sprintf("Discovery failed: %v", msg.err), protocol.SeverityError)
	case len(m.devices) == 0:
		m.setStatus("No XSH devices found. Check the device is powered and on this network.", protocol.SeverityWarning)
	default:
		m.status = ""
	}
	return m, nil
}

// updateDiscovery handles keyboard input on the discovery screens
func (m Model) updateDiscovery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.discoveryKeys.Quit) {
		return m, tea.Quit
	}
	if m.phase == phaseDiscovering {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.discoveryKeys.Up):
		if m.deviceCursor > 0 {
			m.deviceCursor--
		}

	case key.Matches(msg, m.discoveryKeys.Down):
		if m.deviceCursor < len(m.devices)-1 {
			m.deviceCursor++
		}

	case key.Matches(msg, m.discoveryKeys.Rescan):
		if m.discover == nil {
			return m, nil
		}
		m.phase = phaseDiscovering
		m.devices = nil
		m.status = ""
		return m, tea.Batch(m.discoverCmd(), m.spinner.Tick)

	case key.Matches(msg, m.discoveryKeys.Enter):
		if len(m.devices) == 0 {
			return m, nil
		}
		return m.selectDevice(m.devices[m.deviceCursor])
	}
	return m, nil
}

// selectDevice leaves the picker and dials the chosen device
func (m Model) selectDevice(d *discovery.Device) (tea.Model, tea.Cmd) {
	m.url = d.WebSocketURL(m.path)
	m.phase = phaseConnecting
	m.state = session.StateConnecting
	m.status = ""
	return m, tea.Batch(m.connectCmd(), m.spinner.Tick)
}

// viewDiscovery renders the scanning screen or the device picker
func (m Model) viewDiscovery() string {
	var b strings.Builder

	if m.phase == phaseDiscovering {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " Searching for XSH devices on the local network...\n")
		b.WriteString(HintStyle.Render("  Devices advertise themselves over mDNS as xsh-<id>.local"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(SectionTitleStyle.Render("Devices"))
	b.WriteString("\n")

	if len(m.devices) == 0 {
		b.WriteString(HintStyle.Render("  Nothing to show. Press r to scan again, or start with --device."))
		b.WriteString("\n")
	}

	for i, d := range m.devices {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(16).Render(d.ID),
			lipgloss.NewStyle().Width(24).Render(d.Hostname),
			d.Address(),
		)
		if i == m.deviceCursor {
			b.WriteString(SelectedListItemStyle.Render("→ " + line))
		} else {
			b.WriteString(ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StatusBannerStyle(m.statusSev).Render(ui.SeverityMarker(m.statusSev) + " " + m.status))
		b.WriteString("\n")
	}
	return b.String()
}
