package protocol

import (
	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/logging"
)

// Severity classifies a status message for display
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the lowercase name of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Renderer is the rendering surface the dispatcher drives.
// Implementations must not call back into the dispatcher.
type Renderer interface {
	RenderNetworkList(networks []Network)
	RenderScanningIndicator()
	RenderStatus(message string, severity Severity)
	FlagInvalidField(field Field)
}

// StatusText is the fixed display text for an event outcome
type StatusText struct {
	Message  string
	Severity Severity
}

// Display texts for acknowledgements, keyed by event tag then status
var resultTexts = map[string][2]StatusText{
	EventSetWiFiCredentials: {
		{"Failed to save WiFi credentials", SeverityError},
		{"WiFi credentials saved", SeveritySuccess},
	},
	EventSetDeviceName: {
		{"Failed to set device name", SeverityError},
		{"Device name successfully set", SeveritySuccess},
	},
	EventSetWiFiAdvanced: {
		{"Failed to save static IP settings", SeverityError},
		{"Static IP settings saved", SeveritySuccess},
	},
}

// Display texts for terminal connectivity notifications
var notificationTexts = map[string]StatusText{
	EventWiFiConnected:    {"Connected to WiFi", SeveritySuccess},
	EventWiFiAuthFail:     {"WiFi authentication failed, check the password", SeverityError},
	EventWiFiDisconnected: {"WiFi disconnected", SeverityWarning},
	EventDHCPError:        {"Can not get IP", SeverityWarning},
}

// StatusFor returns the status banner an event produces, if any.
// Scan events and unknown events produce none.
func StatusFor(ev Event) (StatusText, bool) {
	if status, ok := Result(ev); ok {
		texts := resultTexts[ev.EventName()]
		if status {
			return texts[1], true
		}
		return texts[0], true
	}
	text, ok := notificationTexts[ev.EventName()]
	return text, ok
}

// Dispatcher routes inbound frames to a Renderer. It holds no UI state.
// Frames must be handed to it one at a time, in arrival order.
type Dispatcher struct {
	renderer  Renderer
	observers []func(Event)
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithObserver registers fn to be called with every decoded event after it
// has been rendered. Unknown events are passed too.
func WithObserver(fn func(Event)) DispatcherOption {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, fn)
	}
}

// NewDispatcher creates a dispatcher that renders to r
func NewDispatcher(r Renderer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{renderer: r}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch decodes one text frame and routes it.
//
// A malformed frame is logged and dropped; the returned error only reports
// what happened and must not stop the caller's read loop.
func (d *Dispatcher) Dispatch(frame []byte) error {
	ev, err := DecodeEvent(frame)
	if err != nil {
		logging.Warn("Dropping malformed frame",
			zap.Error(err),
			zap.ByteString("frame", truncate(frame, 256)),
		)
		return err
	}

	d.DispatchEvent(ev)
	return nil
}

// DispatchEvent routes an already decoded event
func (d *Dispatcher) DispatchEvent(ev Event) {
	logging.Debug("Dispatching event", zap.String("event", ev.EventName()))

	switch e := ev.(type) {
	case ScanWiFiNetworksEvent:
		d.handleScan(e)
	case SetWiFiAdvancedEvent, SetDeviceNameEvent, SetWiFiCredentialsEvent:
		d.handleStatus(e)
	case WiFiConnectedEvent, WiFiAuthFailEvent, WiFiDisconnectedEvent, DHCPErrorEvent:
		d.handleStatus(e)
	case UnknownEvent:
		logging.Debug("Ignoring unknown event", zap.String("event", e.Name))
	}

	for _, fn := range d.observers {
		fn(ev)
	}
}

// handleScan is the 3-way sub-dispatch on scan status
func (d *Dispatcher) handleScan(e ScanWiFiNetworksEvent) {
	switch e.Status {
	case ScanIdle:
		// Nothing rendered; a previously shown list stays on screen.
	case ScanComplete:
		logging.Info("Scan results received", zap.Int("networks", len(e.Networks)))
		d.renderer.RenderNetworkList(e.Networks)
	case ScanInProgress:
		d.renderer.RenderScanningIndicator()
	}
}

func (d *Dispatcher) handleStatus(ev Event) {
	text, ok := StatusFor(ev)
	if !ok {
		return
	}
	if status, isResult := Result(ev); isResult && !status {
		logging.Warn("Device reported failure", zap.String("event", ev.EventName()))
	}
	d.renderer.RenderStatus(text.Message, text.Severity)
}

func truncate(data []byte, n int) []byte {
	if len(data) > n {
		return data[:n]
	}
	return data
}
