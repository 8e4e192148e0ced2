package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/protocol"
)

// Printer writes styled output for one-shot commands.
// It is safe for concurrent use; each call writes whole lines.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) {
	p.width = width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	p.Println("")
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	p.Println(r.SetWidth(p.width).Render())
}

// PrintStatus prints one marker-prefixed status line
func (p *Printer) PrintStatus(msg string, sev protocol.Severity) {
	p.Println(SeverityStyle(sev).Render(fmt.Sprintf("  %s %s", SeverityMarker(sev), msg)))
}

// PrintNetworks prints scan results in device order
func (p *Printer) PrintNetworks(networks []protocol.Network) {
	if len(networks) == 0 {
		p.Println(MutedStyle.Render("  No networks found"))
		return
	}
	for _, n := range networks {
		p.Println(FormatNetwork(n))
	}
}

// FormatNetwork renders one scan result row
func FormatNetwork(n protocol.Network) string {
	ssid := n.SSID
	if ssid == "" {
		ssid = "(hidden)"
	}
	return fmt.Sprintf("  %s %s %3d%%  %s",
		SSIDStyle.Render(ssid),
		RenderSignalBar(n.Signal),
		n.Signal,
		MutedStyle.Render(fmt.Sprintf("(%d dBm)", n.RSSI)),
	)
}

// PrintDevices prints mDNS discovery results
func (p *Printer) PrintDevices(devices []*discovery.Device, path string) {
	if len(devices) == 0 {
		p.Println(MutedStyle.Render("  No devices found"))
		return
	}
	for _, d := range devices {
		p.Println(fmt.Sprintf("  %s %s  %s",
			SuccessTitleStyle.Render(SuccessMarker),
			padRight(d.Hostname, 32),
			HeaderParamValueStyle.Render(d.WebSocketURL(path)),
		))
	}
}

// ConsoleRenderer renders dispatcher output as printed lines
type ConsoleRenderer struct {
	printer *Printer
}

// NewConsoleRenderer creates a renderer printing through p
func NewConsoleRenderer(p *Printer) *ConsoleRenderer {
	return &ConsoleRenderer{printer: p}
}

// RenderNetworkList prints the scan results
func (r *ConsoleRenderer) RenderNetworkList(networks []protocol.Network) {
	r.printer.PrintNetworks(networks)
}

// RenderScanningIndicator prints a progress line
func (r *ConsoleRenderer) RenderScanningIndicator() {
	r.printer.PrintStatus("Scanning for networks...", protocol.SeverityInfo)
}

// RenderStatus prints a status line
func (r *ConsoleRenderer) RenderStatus(msg string, sev protocol.Severity) {
	r.printer.PrintStatus(msg, sev)
}

// FlagInvalidField prints which input was rejected
func (r *ConsoleRenderer) FlagInvalidField(field protocol.Field) {
	r.printer.PrintStatus(field.Label()+" is not a valid IPv4 address", protocol.SeverityError)
}
