package devicesim

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/protocol"
)

const (
	// Time allowed to write a reply to the client
	writeWait = 5 * time.Second

	// DefaultScanDelay is how long a simulated scan stays "in progress"
	DefaultScanDelay = 500 * time.Millisecond
)

// Network is one access point the simulated device can see
type Network struct {
	SSID     string `yaml:"ssid"`
	RSSI     int    `yaml:"rssi"`
	Password string `yaml:"password,omitempty"` // empty = open network
}

// Config controls the simulated device behaviour
type Config struct {
	// Networks returned by a scan, in this order
	Networks []Network `yaml:"networks"`

	// ScanDelay between the "in progress" and "results" replies
	ScanDelay time.Duration `yaml:"scan_delay"`

	// DHCPFailure makes every successful join end with dhcp_error
	DHCPFailure bool `yaml:"dhcp_failure"`

	// Name is the initial device name
	Name string `yaml:"name"`
}

// DefaultNetworks is the neighbourhood used when none is configured
func DefaultNetworks() []Network {
	return []Network{
		{SSID: "Home", RSSI: -40, Password: "correct-horse"},
		{SSID: "Cafe", RSSI: -85},
		{SSID: "Neighbour 5G", RSSI: -71, Password: "letmein123"},
	}
}

// Settings is the configuration the simulated device has accepted
type Settings struct {
	Name     string
	SSID     string
	Password string
	LocalIP  string
	Gateway  string
	Subnet   string
	Reboots  int
}

// Device is a simulated XSH device speaking the device side of the protocol.
// It implements http.Handler; mount it at the WebSocket path.
type Device struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	received []protocol.Request
	settings Settings
}

// New creates a simulated device
func New(cfg Config) *Device {
	if cfg.Networks == nil {
		cfg.Networks = DefaultNetworks()
	}
	if cfg.ScanDelay < 0 {
		cfg.ScanDelay = 0
	}
	return &Device{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		settings: Settings{Name: cfg.Name},
	}
}

// Received returns the requests decoded so far, in arrival order
func (d *Device) Received() []protocol.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]protocol.Request, len(d.received))
	copy(out, d.received)
	return out
}

// Settings returns a snapshot of the accepted configuration
func (d *Device) Settings() Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

// ServeHTTP upgrades the connection and serves one client until it hangs up
func (d *Device) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	defer func() { _ = conn.Close() }()

	remoteAddr := r.RemoteAddr
	logging.LogConnection(remoteAddr, "client_connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			logging.LogConnection(remoteAddr, "client_disconnected", zap.Error(err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		logging.LogFrame(remoteAddr, "received", data)

		req, err := protocol.DecodeRequest(data)
		if err != nil {
			logging.Warn("Ignoring undecodable request",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			continue
		}

		d.mu.Lock()
		d.received = append(d.received, req)
		d.mu.Unlock()

		if done := d.handle(r.Context(), conn, remoteAddr, req); done {
			return
		}
	}
}

// handle replies to one request. It returns true when the connection must end.
func (d *Device) handle(ctx context.Context, conn *websocket.Conn, remoteAddr string, req protocol.Request) bool {
	var replies []any

	switch r := req.(type) {
	case protocol.ScanWiFiNetworks:
		if err := d.send(conn, remoteAddr, scanReply{Event: protocol.EventScanWiFiNetworks, Status: int(protocol.ScanInProgress)}); err != nil {
			return true
		}
		select {
		case <-ctx.Done():
			return true
		case <-time.After(d.cfg.ScanDelay):
		}
		replies = append(replies, d.scanResults())

	case protocol.SetWiFiCredentials:
		replies = d.joinNetwork(r)

	case protocol.SetDeviceName:
		ok := r.Name != ""
		if ok {
			d.mu.Lock()
			d.settings.Name = r.Name
			d.mu.Unlock()
		}
		replies = append(replies, statusReply{Event: protocol.EventSetDeviceName, Status: ok})

	case protocol.SetWiFiAdvanced:
		ok := protocol.IsIPv4Literal(r.LocalIP) && protocol.IsIPv4Literal(r.Gateway) && protocol.IsIPv4Literal(r.Subnet)
		if ok {
			d.mu.Lock()
			d.settings.LocalIP, d.settings.Gateway, d.settings.Subnet = r.LocalIP, r.Gateway, r.Subnet
			d.mu.Unlock()
		}
		replies = append(replies, statusReply{Event: protocol.EventSetWiFiAdvanced, Status: ok})

	case protocol.RebootDevice:
		d.mu.Lock()
		d.settings.Reboots++
		d.mu.Unlock()
		_ = d.send(conn, remoteAddr, eventReply{Event: protocol.EventWiFiDisconnected})
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "rebooting")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		logging.Info("Simulated reboot", zap.String("remote_addr", remoteAddr))
		return true
	}

	for _, reply := range replies {
		if err := d.send(conn, remoteAddr, reply); err != nil {
			return true
		}
	}
	return false
}

func (d *Device) scanResults() scanReply {
	ssids := make([]string, 0, len(d.cfg.Networks))
	rssis := make([]int, 0, len(d.cfg.Networks))
	for _, n := range d.cfg.Networks {
		ssids = append(ssids, n.SSID)
		rssis = append(rssis, n.RSSI)
	}
	return scanReply{
		Event:  protocol.EventScanWiFiNetworks,
		Status: int(protocol.ScanComplete),
		SSID:   &ssids,
		RSSI:   &rssis,
	}
}

// joinNetwork acknowledges the credentials and reports how the join went
func (d *Device) joinNetwork(r protocol.SetWiFiCredentials) []any {
	if r.SSID == "" {
		return []any{statusReply{Event: protocol.EventSetWiFiCredentials, Status: false}}
	}

	d.mu.Lock()
	d.settings.SSID, d.settings.Password = r.SSID, r.Password
	d.mu.Unlock()

	replies := []any{statusReply{Event: protocol.EventSetWiFiCredentials, Status: true}}

	for _, n := range d.cfg.Networks {
		if n.SSID != r.SSID {
			continue
		}
		if n.Password != "" && n.Password != r.Password {
			return append(replies, eventReply{Event: protocol.EventWiFiAuthFail})
		}
		replies = append(replies, eventReply{Event: protocol.EventWiFiConnected})
		if d.cfg.DHCPFailure {
			replies = append(replies, eventReply{Event: protocol.EventDHCPError})
		}
		return replies
	}

	return append(replies, eventReply{Event: protocol.EventWiFiDisconnected})
}

func (d *Device) send(conn *websocket.Conn, remoteAddr string, reply any) error {
	data, err := json.Marshal(reply)
	if err != nil {
		logging.Error("Failed to marshal reply", zap.Error(err))
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Warn("Failed to write reply",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return err
	}
	logging.LogFrame(remoteAddr, "sent", data)
	return nil
}

// Wire shapes of device-to-client events

type scanReply struct {
	Event  string    `json:"event"`
	Status int       `json:"status"`
	SSID   *[]string `json:"ssid,omitempty"`
	RSSI   *[]int    `json:"rssi,omitempty"`
}

type statusReply struct {
	Event  string `json:"event"`
	Status bool   `json:"status"`
}

type eventReply struct {
	Event string `json:"event"`
}
