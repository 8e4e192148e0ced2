package protocol

import "fmt"

// Event tags carried in the "event" field of every frame
const (
	EventScanWiFiNetworks   = "scan_wifi_networks"
	EventSetWiFiCredentials = "set_wifi_credentials"
	EventSetDeviceName      = "set_device_name"
	EventSetWiFiAdvanced    = "set_wifi_advanced"
	EventRebootDevice       = "reboot_device"
	EventWiFiConnected      = "wifi_connected"
	EventWiFiAuthFail       = "wifi_auth_fail"
	EventWiFiDisconnected   = "wifi_disconnected"
	EventDHCPError          = "dhcp_error"
)

// Field identifies a user-editable input that feeds an outbound request.
// The values double as the JSON field names on the wire.
type Field string

const (
	FieldSSID       Field = "ssid"
	FieldPassword   Field = "password"
	FieldDeviceName Field = "name"
	FieldLocalIP    Field = "local_ip"
	FieldGateway    Field = "gateway"
	FieldSubnet     Field = "subnet"
)

// Label returns the display label for a field
func (f Field) Label() string {
	switch f {
	case FieldSSID:
		return "SSID"
	case FieldPassword:
		return "Password"
	case FieldDeviceName:
		return "Device name"
	case FieldLocalIP:
		return "Local IP"
	case FieldGateway:
		return "Gateway"
	case FieldSubnet:
		return "Subnet"
	default:
		return string(f)
	}
}

// ScanStatus is the status code carried by a scan_wifi_networks event
type ScanStatus int

const (
	// ScanIdle means no results are available
	ScanIdle ScanStatus = 0
	// ScanComplete means ssid/rssi carry the scan results
	ScanComplete ScanStatus = 1
	// ScanInProgress means the device is still scanning
	ScanInProgress ScanStatus = 2
)

// String returns a debug name for the scan status
func (s ScanStatus) String() string {
	switch s {
	case ScanIdle:
		return "idle"
	case ScanComplete:
		return "complete"
	case ScanInProgress:
		return "in_progress"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Network is one row of a scan result
type Network struct {
	SSID   string
	RSSI   int // dBm, negative
	Signal int // 0-100, derived from RSSI
}

// NewNetwork builds a Network and derives its signal strength
func NewNetwork(ssid string, rssi int) Network {
	return Network{SSID: ssid, RSSI: rssi, Signal: SignalPercent(rssi)}
}

// SignalPercent maps an RSSI in dBm to a 0-100 signal bar: clamp(100+rssi, 0, 100)
func SignalPercent(rssi int) int {
	return min(max(100+rssi, 0), 100)
}

// Event is a decoded device-to-client message. The set of implementations is closed.
type Event interface {
	// EventName returns the wire tag of the event
	EventName() string
	isEvent()
}

// ScanWiFiNetworksEvent reports scan progress or results
type ScanWiFiNetworksEvent struct {
	Status   ScanStatus
	Networks []Network // only set when Status is ScanComplete
}

// SetWiFiAdvancedEvent acknowledges a static IP request
type SetWiFiAdvancedEvent struct{ OK bool }

// SetDeviceNameEvent acknowledges a device name request
type SetDeviceNameEvent struct{ OK bool }

// SetWiFiCredentialsEvent acknowledges a credentials request
type SetWiFiCredentialsEvent struct{ OK bool }

// WiFiConnectedEvent reports that the device joined the configured network
type WiFiConnectedEvent struct{}

// WiFiAuthFailEvent reports that the configured password was rejected
type WiFiAuthFailEvent struct{}

// WiFiDisconnectedEvent reports that the device left the network
type WiFiDisconnectedEvent struct{}

// DHCPErrorEvent reports that the device could not obtain an address
type DHCPErrorEvent struct{}

// UnknownEvent carries a tag this client does not know. It is never rendered.
type UnknownEvent struct{ Name string }

func (ScanWiFiNetworksEvent) EventName() string   { return EventScanWiFiNetworks }
func (SetWiFiAdvancedEvent) EventName() string    { return EventSetWiFiAdvanced }
func (SetDeviceNameEvent) EventName() string      { return EventSetDeviceName }
func (SetWiFiCredentialsEvent) EventName() string { return EventSetWiFiCredentials }
func (WiFiConnectedEvent) EventName() string      { return EventWiFiConnected }
func (WiFiAuthFailEvent) EventName() string       { return EventWiFiAuthFail }
func (WiFiDisconnectedEvent) EventName() string   { return EventWiFiDisconnected }
func (DHCPErrorEvent) EventName() string          { return EventDHCPError }
func (e UnknownEvent) EventName() string          { return e.Name }

func (ScanWiFiNetworksEvent) isEvent()   {}
func (SetWiFiAdvancedEvent) isEvent()    {}
func (SetDeviceNameEvent) isEvent()      {}
func (SetWiFiCredentialsEvent) isEvent() {}
func (WiFiConnectedEvent) isEvent()      {}
func (WiFiAuthFailEvent) isEvent()       {}
func (WiFiDisconnectedEvent) isEvent()   {}
func (DHCPErrorEvent) isEvent()          {}
func (UnknownEvent) isEvent()            {}

// Result returns the boolean status of a set_* acknowledgement.
// ok is false for events that are not acknowledgements.
func Result(ev Event) (status bool, ok bool) {
	switch e := ev.(type) {
	case SetWiFiAdvancedEvent:
		return e.OK, true
	case SetDeviceNameEvent:
		return e.OK, true
	case SetWiFiCredentialsEvent:
		return e.OK, true
	}
	return false, false
}
