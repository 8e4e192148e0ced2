package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.Request
}

func (s *fakeSender) Send(req protocol.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	return nil
}

func (s *fakeSender) requests() []protocol.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Request(nil), s.sent...)
}

type fakeRenderer struct {
	mu       sync.Mutex
	statuses []string
	flagged  []protocol.Field
}

func (r *fakeRenderer) RenderNetworkList([]protocol.Network) {}
func (r *fakeRenderer) RenderScanningIndicator()              {}

func (r *fakeRenderer) RenderStatus(msg string, _ protocol.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, msg)
}

func (r *fakeRenderer) FlagInvalidField(field protocol.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flagged = append(r.flagged, field)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// connectedModel returns a model in the panel phase with an open session
func connectedModel(t *testing.T) (Model, *fakeSender, *fakeRenderer) {
	t.Helper()
	sender := &fakeSender{}
	renderer := &fakeRenderer{}
	m := NewModel(Config{URL: "ws://192.168.4.1/ws", Renderer: renderer})
	m, _ = update(t, m, connectedMsg{sender: sender})
	if m.phase != phasePanel || m.state != session.StateOpen {
		t.Fatalf("phase=%v state=%v after connect", m.phase, m.state)
	}
	return m, sender, renderer
}

func runCmd(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); msg != nil {
		t.Errorf("action command returned %T, want nil", msg)
	}
}

func TestModel_Scan(t *testing.T) {
	m, sender, _ := connectedModel(t)

	_, cmd := press(t, m, tea.KeyCtrlS)
	runCmd(t, cmd)

	reqs := sender.requests()
	if len(reqs) != 1 {
		t.Fatalf("sent %d requests, want 1", len(reqs))
	}
	if _, ok := reqs[0].(protocol.ScanWiFiNetworks); !ok {
		t.Errorf("sent %T, want ScanWiFiNetworks", reqs[0])
	}
}

func TestModel_NotConnected(t *testing.T) {
	m := NewModel(Config{URL: "ws://192.168.4.1/ws", Renderer: &fakeRenderer{}})
	m, _ = update(t, m, connectFailedMsg{err: errors.New("refused")})

	if m.state != session.StateClosed {
		t.Errorf("state = %v, want closed", m.state)
	}
	if !strings.Contains(m.status, "refused") {
		t.Errorf("status = %q", m.status)
	}

	m, cmd := press(t, m, tea.KeyCtrlS)
	if cmd != nil {
		t.Error("no command expected without a session")
	}
	if m.status != "Not connected to a device" || m.statusSev != protocol.SeverityWarning {
		t.Errorf("status = %q (%v)", m.status, m.statusSev)
	}
}

func TestModel_SubmitCredentials(t *testing.T) {
	m, sender, _ := connectedModel(t)

	m = typeText(t, m, "Home")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, `pa"ss`)
	_, cmd := press(t, m, tea.KeyEnter)
	runCmd(t, cmd)

	reqs := sender.requests()
	if len(reqs) != 1 {
		t.Fatalf("sent %d requests, want 1", len(reqs))
	}
	want := protocol.SetWiFiCredentials{SSID: "Home", Password: `pa"ss`}
	if reqs[0] != want {
		t.Errorf("sent %#v, want %#v", reqs[0], want)
	}
}

func TestModel_SubmitDeviceName(t *testing.T) {
	m, sender, _ := connectedModel(t)

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "kitchen")
	_, cmd := press(t, m, tea.KeyEnter)
	runCmd(t, cmd)

	reqs := sender.requests()
	if len(reqs) != 1 || reqs[0] != (protocol.SetDeviceName{Name: "kitchen"}) {
		t.Errorf("sent %#v", reqs)
	}
}

func TestModel_SubmitAdvancedInvalid(t *testing.T) {
	m, sender, renderer := connectedModel(t)

	for i := 0; i < 3; i++ {
		m, _ = press(t, m, tea.KeyTab)
	}
	m = typeText(t, m, "10.0.0.300")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "10.0.0.1")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "255.255.255.0")
	_, cmd := press(t, m, tea.KeyEnter)
	runCmd(t, cmd)

	if reqs := sender.requests(); len(reqs) != 0 {
		t.Errorf("invalid input must not be sent, got %#v", reqs)
	}
	if len(renderer.flagged) != 1 || renderer.flagged[0] != protocol.FieldLocalIP {
		t.Errorf("flagged = %v, want [local_ip]", renderer.flagged)
	}
	if len(renderer.statuses) != 1 || renderer.statuses[0] != "Invalid Local IP" {
		t.Errorf("statuses = %v", renderer.statuses)
	}
}

func TestModel_OverlongInputKeptWhole(t *testing.T) {
	t.Run("address with an extra digit is flagged", func(t *testing.T) {
		m, sender, renderer := connectedModel(t)
		for i := 0; i < 3; i++ {
			m, _ = press(t, m, tea.KeyTab)
		}
		m = typeText(t, m, "192.168.100.1000")
		m, _ = press(t, m, tea.KeyTab)
		m = typeText(t, m, "192.168.100.1")
		m, _ = press(t, m, tea.KeyTab)
		m = typeText(t, m, "255.255.255.0")
		_, cmd := press(t, m, tea.KeyEnter)
		runCmd(t, cmd)

		if got := m.Value(protocol.FieldLocalIP); got != "192.168.100.1000" {
			t.Errorf("local_ip = %q, want the full input", got)
		}
		if reqs := sender.requests(); len(reqs) != 0 {
			t.Errorf("invalid input must not be sent, got %#v", reqs)
		}
		if len(renderer.flagged) != 1 || renderer.flagged[0] != protocol.FieldLocalIP {
			t.Errorf("flagged = %v, want [local_ip]", renderer.flagged)
		}
	})

	t.Run("long ssid and password are sent verbatim", func(t *testing.T) {
		m, sender, _ := connectedModel(t)
		ssid := strings.Repeat("s", 40)
		password := strings.Repeat("p", 80)
		m = typeText(t, m, ssid)
		m, _ = press(t, m, tea.KeyTab)
		m = typeText(t, m, password)
		_, cmd := press(t, m, tea.KeyEnter)
		runCmd(t, cmd)

		reqs := sender.requests()
		want := protocol.SetWiFiCredentials{SSID: ssid, Password: password}
		if len(reqs) != 1 || reqs[0] != want {
			t.Errorf("sent %#v, want %#v", reqs, want)
		}
	})
}

func TestModel_FlagClearedOnEdit(t *testing.T) {
	m, _, _ := connectedModel(t)
	for i := 0; i < 3; i++ {
		m, _ = press(t, m, tea.KeyTab)
	}

	m, _ = update(t, m, flagMsg{field: protocol.FieldLocalIP})
	if !m.invalid[protocol.FieldLocalIP] {
		t.Fatal("field should be flagged")
	}
	if !strings.Contains(m.View(), "✗") {
		t.Error("view should mark the invalid field")
	}

	m = typeText(t, m, "1")
	if m.invalid[protocol.FieldLocalIP] {
		t.Error("editing should clear the flag")
	}
}

func TestModel_SelectNetwork(t *testing.T) {
	m, _, _ := connectedModel(t)

	m, _ = update(t, m, scanningMsg{})
	if !m.scanning {
		t.Error("scanning indicator should be shown")
	}
	m, _ = update(t, m, networksMsg{networks: []protocol.Network{
		{SSID: "Home", RSSI: -40, Signal: 100},
		{SSID: "Cafe", RSSI: -85, Signal: 30},
	}})
	if m.scanning {
		t.Error("results should stop the scanning indicator")
	}

	m, _ = press(t, m, tea.KeyShiftTab)
	if m.focus != 0 {
		t.Fatalf("focus = %d, want network list", m.focus)
	}
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyEnter)

	if got := m.Value(protocol.FieldSSID); got != "Cafe" {
		t.Errorf("ssid = %q, want Cafe", got)
	}
	if m.focus != 2 {
		t.Errorf("focus = %d, want password field", m.focus)
	}
}

func TestModel_FocusWraps(t *testing.T) {
	m, _, _ := connectedModel(t)
	for i := 0; i < len(m.fields); i++ {
		m, _ = press(t, m, tea.KeyTab)
	}
	if m.focus != 0 {
		t.Errorf("focus = %d, want wrap to network list", m.focus)
	}
	m, _ = press(t, m, tea.KeyShiftTab)
	if m.focus != len(m.fields) {
		t.Errorf("focus = %d, want last field", m.focus)
	}
}

func TestModel_SessionEnded(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantSev protocol.Severity
	}{
		{"normal close", nil, protocol.SeverityWarning},
		{"read error", errors.New("reset by peer"), protocol.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := connectedModel(t)
			m, _ = update(t, m, sessionEndedMsg{err: tt.err})

			if m.state != session.StateClosed || m.sender != nil {
				t.Errorf("state=%v sender=%v", m.state, m.sender)
			}
			if m.statusSev != tt.wantSev {
				t.Errorf("severity = %v, want %v", m.statusSev, tt.wantSev)
			}
			if _, cmd := press(t, m, tea.KeyCtrlR); cmd != nil {
				t.Error("reboot must not be sent on a closed session")
			}
		})
	}
}

func TestModel_DevicePicker(t *testing.T) {
	devices := []*discovery.Device{
		{ID: "a1", Hostname: "xsh-a1.local.", IP: "192.168.1.20", Port: 80},
		{ID: "b2", Hostname: "xsh-b2.local.", IP: "192.168.1.21", Port: 8080},
	}
	var dialled []string
	m := NewModel(Config{
		Path:     "/ws",
		Renderer: &fakeRenderer{},
		Discover: func() ([]*discovery.Device, error) { return devices, nil },
		Connect: func(url string) tea.Cmd {
			dialled = append(dialled, url)
			return nil
		},
	})

	if m.phase != phaseDiscovering {
		t.Fatalf("phase = %v, want discovering", m.phase)
	}
	cmd := m.discoverCmd()
	if cmd == nil {
		t.Fatal("discoverCmd returned nil")
	}
	m, _ = update(t, m, cmd())
	if m.phase != phasePicking || len(m.devices) != 2 {
		t.Fatalf("phase=%v devices=%d", m.phase, len(m.devices))
	}
	if !strings.Contains(m.View(), "xsh-b2.local.") {
		t.Error("view should list discovered devices")
	}

	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyEnter)

	if m.phase != phaseConnecting {
		t.Errorf("phase = %v, want connecting", m.phase)
	}
	want := "ws://192.168.1.21:8080/ws"
	if len(dialled) != 1 || dialled[0] != want {
		t.Errorf("dialled %v, want [%s]", dialled, want)
	}
}

func TestModel_NoDevicesFound(t *testing.T) {
	m := NewModel(Config{
		Discover: func() ([]*discovery.Device, error) { return nil, nil },
	})
	m, _ = update(t, m, devicesMsg{})

	if m.statusSev != protocol.SeverityWarning || !strings.Contains(m.status, "No XSH devices") {
		t.Errorf("status = %q (%v)", m.status, m.statusSev)
	}
	if _, cmd := press(t, m, tea.KeyEnter); cmd != nil {
		t.Error("enter with no devices should do nothing")
	}
}

func TestModel_View(t *testing.T) {
	m, _, _ := connectedModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	for _, want := range []string{AppName, "open", "Networks", "SSID", "Password", "Device name", "Local IP", "Gateway", "Subnet"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

type collectingProgram struct {
	msgs []tea.Msg
}

func (p *collectingProgram) Send(msg tea.Msg) {
	p.msgs = append(p.msgs, msg)
}

func TestProgramRenderer(t *testing.T) {
	r := NewProgramRenderer(nil)
	r.RenderStatus("dropped", protocol.SeverityInfo) // no program yet

	p := &collectingProgram{}
	r.Attach(p)
	r.RenderScanningIndicator()
	r.RenderNetworkList([]protocol.Network{{SSID: "Home"}})
	r.RenderStatus("WiFi connected", protocol.SeveritySuccess)
	r.FlagInvalidField(protocol.FieldGateway)
	r.StateChanged(session.StateClosed)

	if len(p.msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(p.msgs))
	}
	if _, ok := p.msgs[0].(scanningMsg); !ok {
		t.Errorf("msg[0] = %T", p.msgs[0])
	}
	if nm, ok := p.msgs[1].(networksMsg); !ok || nm.networks[0].SSID != "Home" {
		t.Errorf("msg[1] = %#v", p.msgs[1])
	}
	if sm, ok := p.msgs[2].(statusMsg); !ok || sm.text != "WiFi connected" || sm.sev != protocol.SeveritySuccess {
		t.Errorf("msg[2] = %#v", p.msgs[2])
	}
	if fm, ok := p.msgs[3].(flagMsg); !ok || fm.field != protocol.FieldGateway {
		t.Errorf("msg[3] = %#v", p.msgs[3])
	}
	if st, ok := p.msgs[4].(stateMsg); !ok || st.state != session.StateClosed {
		t.Errorf("msg[4] = %#v", p.msgs[4])
	}
}
