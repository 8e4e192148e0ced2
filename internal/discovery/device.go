package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultWebSocketPath is where XSH devices serve the configuration channel
const DefaultWebSocketPath = "/ws"

// Device represents a discovered XSH device on the network
type Device struct {
	// ID is the identifier captured from the hostname (e.g., "a1b2c3")
	ID string

	// Hostname is the mDNS hostname (e.g., "xsh-a1b2c3.local.")
	Hostname string

	// IP is the device address, IPv4 when one was advertised
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("XSH Device %s (%s) at %s", d.ID, d.Hostname, d.hostPort())
}

// WebSocketURL returns the configuration channel URL, e.g. ws://192.168.4.1:80/ws.
// An empty path uses the "ws" TXT record when advertised, else DefaultWebSocketPath.
func (d *Device) WebSocketURL(path string) string {
	if path == "" {
		path = d.GetMetadata("ws")
	}
	if path == "" {
		path = DefaultWebSocketPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + d.hostPort() + path
}

// Address returns host:port, suitable for the --device flag
func (d *Device) Address() string {
	return d.hostPort()
}

func (d *Device) hostPort() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
