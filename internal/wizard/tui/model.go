package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/panel"
	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
	"github.com/muurk/xshcfg/internal/ui"
)

// phase is the screen the model is on
type phase int

const (
	phaseDiscovering phase = iota
	phasePicking
	phaseConnecting
	phasePanel
)

// Connector returns a command that dials url and reports connectedMsg or
// connectFailedMsg
type Connector func(url string) tea.Cmd

// Session lifecycle messages
type (
	connectedMsg     struct{ sender panel.Sender }
	connectFailedMsg struct{ err error }
	sessionEndedMsg  struct{ err error }
)

// field is one labelled text input
type field struct {
	id    protocol.Field
	input textinput.Model
}

// Config wires the model to its collaborators
type Config struct {
	// URL of the device; empty starts with discovery
	URL string

	// Path appended to discovered devices
	Path string

	// Renderer handed to the panel for every action
	Renderer protocol.Renderer

	// Connect dials the device
	Connect Connector

	// Discover lists devices on the network; nil disables the picker
	Discover func() ([]*discovery.Device, error)
}

// Model is the interactive control panel
type Model struct {
	url   string
	path  string
	phase phase
	state session.State

	fields []field
	focus  int // 0 = network list, i = fields[i-1]

	networks []protocol.Network
	cursor   int
	scanning bool
	spinner  spinner.Model

	status    string
	statusSev protocol.Severity
	invalid   map[protocol.Field]bool

	renderer protocol.Renderer
	sender   panel.Sender
	connect  Connector
	discover func() ([]*discovery.Device, error)

	devices      []*discovery.Device
	deviceCursor int

	help          help.Model
	keys          panelKeyMap
	discoveryKeys discoveryKeyMap

	Width  int
	Height int
}

// NewModel creates the control panel model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := Model{
		url:           cfg.URL,
		path:          cfg.Path,
		state:         session.StateConnecting,
		fields:        newFields(),
		focus:         1,
		spinner:       s,
		invalid:       make(map[protocol.Field]bool),
		renderer:      cfg.Renderer,
		connect:       cfg.Connect,
		discover:      cfg.Discover,
		help:          help.New(),
		keys:          newPanelKeyMap(),
		discoveryKeys: newDiscoveryKeyMap(),
	}
	m.fields[0].input.Focus()

	switch {
	case m.url != "":
		m.phase = phaseConnecting
	case m.discover != nil:
		m.phase = phaseDiscovering
	default:
		m.phase = phasePicking
	}
	return m
}

func newFields() []field {
	specs := []struct {
		id          protocol.Field
		placeholder string
	}{
		{protocol.FieldSSID, "network name"},
		{protocol.FieldPassword, "password"},
		{protocol.FieldDeviceName, "kitchen-panel"},
		{protocol.FieldLocalIP, "192.168.1.50"},
		{protocol.FieldGateway, "192.168.1.1"},
		{protocol.FieldSubnet, "255.255.255.0"},
	}

	fields := make([]field, len(specs))
	for i, s := range specs {
		in := textinput.New()
		in.Placeholder = s.placeholder
		// CharLimit stays 0 so input is never truncated
		in.Width = 32
		in.Prompt = ""
		if s.id == protocol.FieldPassword {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		fields[i] = field{id: s.id, input: in}
	}
	return fields
}

// Init starts connecting or discovering
func (m Model) Init() tea.Cmd {
	switch m.phase {
	case phaseConnecting:
		return tea.Batch(m.connectCmd(), m.spinner.Tick, textinput.Blink)
	case phaseDiscovering:
		return tea.Batch(m.discoverCmd(), m.spinner.Tick)
	default:
		return nil
	}
}

func (m Model) connectCmd() tea.Cmd {
	if m.connect == nil {
		return nil
	}
	return m.connect(m.url)
}

// Value implements panel.InputSurface over the live inputs
func (m Model) Value(id protocol.Field) string {
	for _, f := range m.fields {
		if f.id == id {
			return f.input.Value()
		}
	}
	return ""
}

// snapshot copies the input values so a command can read them off the
// Update goroutine
func (m Model) snapshot() panel.Values {
	v := make(panel.Values, len(m.fields))
	for _, f := range m.fields {
		v[f.id] = f.input.Value()
	}
	return v
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.phase {
		case phaseDiscovering, phasePicking:
			return m.updateDiscovery(msg)
		case phaseConnecting:
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		default:
			return m.updatePanel(msg)
		}

	case devicesMsg:
		return m.handleDevices(msg)

	case connectedMsg:
		m.sender = msg.sender
		m.phase = phasePanel
		m.state = session.StateOpen
		m.setStatus("Connected to "+m.url+", press ctrl+s to scan", protocol.SeverityInfo)
		return m, nil

	case connectFailedMsg:
		m.phase = phasePanel
		m.state = session.StateClosed
		m.setStatus(fmt.Sprintf("Connection failed: %v", msg.err), protocol.SeverityError)
		return m, nil

	case sessionEndedMsg:
		m.sender = nil
		m.state = session.StateClosed
		m.scanning = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Connection lost: %v", msg.err), protocol.SeverityError)
		} else if m.status == "" || m.statusSev != protocol.SeverityWarning {
			m.setStatus("Connection closed", protocol.SeverityWarning)
		}
		return m, nil

	case stateMsg:
		m.state = msg.state
		return m, nil

	case networksMsg:
		m.networks = msg.networks
		m.scanning = false
		if m.cursor >= len(m.networks) {
			m.cursor = 0
		}
		return m, nil

	case scanningMsg:
		if m.scanning {
			return m, nil
		}
		m.scanning = true
		return m, m.spinner.Tick

	case statusMsg:
		m.setStatus(msg.text, msg.sev)
		return m, nil

	case flagMsg:
		m.invalid[msg.field] = true
		return m, nil

	case spinner.TickMsg:
		if !m.spinning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other input messages go to the focused field
	if m.phase == phasePanel && m.focus > 0 {
		var cmd tea.Cmd
		f := &m.fields[m.focus-1]
		f.input, cmd = f.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) spinning() bool {
	return m.scanning || m.phase == phaseDiscovering || m.phase == phaseConnecting
}

func (m *Model) setStatus(text string, sev protocol.Severity) {
	m.status = text
	m.statusSev = sev
}

func (m Model) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		return m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.Prev):
		return m.setFocus(m.focus - 1)
	case key.Matches(msg, m.keys.Scan):
		return m.run((*panel.Panel).ScanNetworks)
	case key.Matches(msg, m.keys.Reboot):
		return m.run((*panel.Panel).Reboot)
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	if m.focus == 0 {
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.networks)-1 {
				m.cursor++
			}
		}
		return m, nil
	}

	f := &m.fields[m.focus-1]
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.input.Value() != before {
		delete(m.invalid, f.id)
	}
	return m, cmd
}

// setFocus moves focus, wrapping around the network list and every field
func (m Model) setFocus(i int) (tea.Model, tea.Cmd) {
	n := len(m.fields) + 1
	m.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range m.fields {
		if j == m.focus-1 {
			cmd = m.fields[j].input.Focus()
		} else {
			m.fields[j].input.Blur()
		}
	}
	return m, cmd
}

// submit sends the section the focused field belongs to
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.focus == 0 {
		if len(m.networks) == 0 {
			return m, nil
		}
		m.fields[0].input.SetValue(m.networks[m.cursor].SSID)
		delete(m.invalid, protocol.FieldSSID)
		return m.setFocus(2) // password
	}

	switch m.fields[m.focus-1].id {
	case protocol.FieldSSID, protocol.FieldPassword:
		return m.run((*panel.Panel).SubmitCredentials)
	case protocol.FieldDeviceName:
		return m.run((*panel.Panel).SubmitDeviceName)
	default:
		return m.run((*panel.Panel).SubmitAdvanced)
	}
}

// run performs a panel action as a command. Render calls it makes reach the
// model later as messages.
func (m Model) run(action func(*panel.Panel) error) (tea.Model, tea.Cmd) {
	if m.sender == nil || m.state != session.StateOpen {
		m.setStatus("Not connected to a device", protocol.SeverityWarning)
		return m, nil
	}
	p := panel.New(m.snapshot(), m.renderer, m.sender)
	return m, func() tea.Msg {
		_ = action(p)
		return nil
	}
}

// View renders the current screen
func (m Model) View() string {
	var content, footer string
	switch m.phase {
	case phaseDiscovering, phasePicking:
		content = m.viewDiscovery()
		footer = m.help.View(m.discoveryKeys)
	case phaseConnecting:
		content = "\n" + m.spinner.View() + " Connecting to " + m.url + "...\n"
		footer = m.help.View(m.keys)
	default:
		content = m.viewPanel()
		footer = m.help.View(m.keys)
	}

	state := StateStyle(m.state).Render("● " + m.state.String())
	return RenderApplicationContainer(content, state, footer, m.Width, m.Height)
}

func (m Model) viewPanel() string {
	var b strings.Builder

	b.WriteString(SectionTitleStyle.Render("Networks"))
	if m.scanning {
		b.WriteString("  " + m.spinner.View() + " Scanning...")
	}
	b.WriteString("\n")
	b.WriteString(m.viewNetworks())

	sections := []struct {
		title string
		from  int
		to    int
	}{
		{"WiFi", 0, 2},
		{"Device", 2, 3},
		{"Static IP", 3, 6},
	}
	for _, s := range sections {
		b.WriteString(SectionTitleStyle.Render(s.title))
		b.WriteString("\n")
		for i := s.from; i < s.to; i++ {
			b.WriteString(m.viewField(i))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StatusBannerStyle(m.statusSev).Render(ui.SeverityMarker(m.statusSev) + " " + m.status))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewNetworks() string {
	if len(m.networks) == 0 {
		return HintStyle.Render("  No scan results yet. Press ctrl+s to scan.") + "\n"
	}

	var b strings.Builder
	for i, n := range m.networks {
		line := ui.FormatNetwork(n)
		if m.focus == 0 && i == m.cursor {
			b.WriteString(SelectedListItemStyle.Render("→") + line)
		} else {
			b.WriteString(" " + line)
		}
		b.WriteString("\n")
	}
	if m.focus == 0 {
		b.WriteString(HintStyle.Render("  enter copies the SSID into the WiFi section"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewField(i int) string {
	f := m.fields[i]
	label := f.id.Label() + ":"

	var styled string
	switch {
	case m.invalid[f.id]:
		styled = InvalidLabelStyle.Render(ui.FailureMarker + " " + label)
	case m.focus == i+1:
		styled = FocusedLabelStyle.Render("→ " + label)
	default:
		styled = LabelStyle.Render("  " + label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, "  ", styled, " ", f.input.View())
}
