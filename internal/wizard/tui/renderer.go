package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
)

// Messages carrying render calls into the Update loop
type (
	networksMsg struct{ networks []protocol.Network }
	scanningMsg struct{}
	statusMsg   struct {
		text string
		sev  protocol.Severity
	}
	flagMsg  struct{ field protocol.Field }
	stateMsg struct{ state session.State }
)

// MessageSender is satisfied by *tea.Program
type MessageSender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer implements protocol.Renderer by posting messages to the
// running program. It must never be called from inside Update: Program.Send
// blocks until Update is free.
type ProgramRenderer struct {
	sender MessageSender
}

// NewProgramRenderer creates a renderer posting to s. s may be set later with Attach.
func NewProgramRenderer(s MessageSender) *ProgramRenderer {
	return &ProgramRenderer{sender: s}
}

// Attach sets the program once it exists
func (r *ProgramRenderer) Attach(s MessageSender) {
	r.sender = s
}

func (r *ProgramRenderer) send(msg tea.Msg) {
	if r.sender != nil {
		r.sender.Send(msg)
	}
}

// RenderNetworkList replaces the network list
func (r *ProgramRenderer) RenderNetworkList(networks []protocol.Network) {
	r.send(networksMsg{networks: networks})
}

// RenderScanningIndicator starts the scanning spinner
func (r *ProgramRenderer) RenderScanningIndicator() {
	r.send(scanningMsg{})
}

// RenderStatus replaces the status banner
func (r *ProgramRenderer) RenderStatus(msg string, sev protocol.Severity) {
	r.send(statusMsg{text: msg, sev: sev})
}

// FlagInvalidField marks an input as rejected until it is edited
func (r *ProgramRenderer) FlagInvalidField(field protocol.Field) {
	r.send(flagMsg{field: field})
}

// StateChanged forwards session state transitions; use as Options.OnStateChange
func (r *ProgramRenderer) StateChanged(st session.State) {
	r.send(stateMsg{state: st})
}
