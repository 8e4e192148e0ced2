package protocol

import (
	"encoding/json"
	"fmt"
)

// Request is a client-to-device message. The set of implementations is closed.
type Request interface {
	// EventName returns the wire tag of the request
	EventName() string
	isRequest()
}

// ScanWiFiNetworks asks the device to scan for nearby networks
type ScanWiFiNetworks struct{}

// SetWiFiCredentials asks the device to join a network.
// Values are sent verbatim; the device validates them.
type SetWiFiCredentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// SetDeviceName asks the device to rename itself
type SetDeviceName struct {
	Name string `json:"name"`
}

// SetWiFiAdvanced assigns static IP parameters. Build it with NewSetWiFiAdvanced.
type SetWiFiAdvanced struct {
	LocalIP string `json:"local_ip"`
	Gateway string `json:"gateway"`
	Subnet  string `json:"subnet"`
}

// RebootDevice asks the device to restart
type RebootDevice struct{}

func (ScanWiFiNetworks) EventName() string   { return EventScanWiFiNetworks }
func (SetWiFiCredentials) EventName() string { return EventSetWiFiCredentials }
func (SetDeviceName) EventName() string      { return EventSetDeviceName }
func (SetWiFiAdvanced) EventName() string    { return EventSetWiFiAdvanced }
func (RebootDevice) EventName() string       { return EventRebootDevice }

func (ScanWiFiNetworks) isRequest()   {}
func (SetWiFiCredentials) isRequest() {}
func (SetDeviceName) isRequest()      {}
func (SetWiFiAdvanced) isRequest()    {}
func (RebootDevice) isRequest()       {}

// NewSetWiFiAdvanced validates the three fields and builds the request.
// If any field fails, no request is returned and the error is a
// ValidationErrors naming every invalid field.
func NewSetWiFiAdvanced(localIP, gateway, subnet string) (SetWiFiAdvanced, error) {
	if errs := ValidateWiFiAdvanced(localIP, gateway, subnet); len(errs) > 0 {
		return SetWiFiAdvanced{}, errs
	}
	return SetWiFiAdvanced{LocalIP: localIP, Gateway: gateway, Subnet: subnet}, nil
}

// Encode serializes a request to its wire form: one JSON object with the
// "event" tag first, followed by the variant's fields.
func Encode(req Request) ([]byte, error) {
	var body any
	switch r := req.(type) {
	case ScanWiFiNetworks, RebootDevice:
		body = struct {
			Event string `json:"event"`
		}{r.EventName()}
	case SetWiFiCredentials:
		body = struct {
			Event string `json:"event"`
			SetWiFiCredentials
		}{r.EventName(), r}
	case SetDeviceName:
		body = struct {
			Event string `json:"event"`
			SetDeviceName
		}{r.EventName(), r}
	case SetWiFiAdvanced:
		body = struct {
			Event string `json:"event"`
			SetWiFiAdvanced
		}{r.EventName(), r}
	case nil:
		return nil, fmt.Errorf("cannot encode nil request")
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.EventName(), err)
	}
	return data, nil
}

// DecodeRequest parses a client-to-device frame. This is the device side of
// the protocol, used by the simulator.
func DecodeRequest(frame []byte) (Request, error) {
	name, err := readEnvelope(frame)
	if err != nil {
		return nil, err
	}

	switch name {
	case EventScanWiFiNetworks:
		return ScanWiFiNetworks{}, nil
	case EventRebootDevice:
		return RebootDevice{}, nil
	case EventSetWiFiCredentials:
		var r SetWiFiCredentials
		if err := json.Unmarshal(frame, &r); err != nil {
			return nil, NewMalformedPayloadError(name, "invalid credentials payload", err)
		}
		return r, nil
	case EventSetDeviceName:
		var r SetDeviceName
		if err := json.Unmarshal(frame, &r); err != nil {
			return nil, NewMalformedPayloadError(name, "invalid device name payload", err)
		}
		return r, nil
	case EventSetWiFiAdvanced:
		var r SetWiFiAdvanced
		if err := json.Unmarshal(frame, &r); err != nil {
			return nil, NewMalformedPayloadError(name, "invalid static IP payload", err)
		}
		return r, nil
	default:
		return nil, NewMalformedPayloadError(name, "unknown request event", nil)
	}
}
