package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the part of every frame needed for routing
type envelope struct {
	Event *string `json:"event"`
}

type scanPayload struct {
	Status *int      `json:"status"`
	SSID   *[]string `json:"ssid"`
	RSSI   *[]int    `json:"rssi"`
}

type statusPayload struct {
	Status *bool `json:"status"`
}

// readEnvelope checks the frame is a JSON object with a string event tag
func readEnvelope(frame []byte) (string, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", NewMalformedPayloadError("", "frame is not a JSON object", nil)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return "", NewMalformedPayloadError("", "invalid JSON or non-string event field", err)
	}
	if env.Event == nil {
		return "", NewMalformedPayloadError("", "missing event field", nil)
	}
	return *env.Event, nil
}

// DecodeEvent parses one inbound text frame into an Event.
//
// Frames that are not JSON objects, lack a string "event" field, or break the
// schema of a known event fail with a MalformedPayload error. Unknown tags
// decode to UnknownEvent without error.
func DecodeEvent(frame []byte) (Event, error) {
	name, err := readEnvelope(frame)
	if err != nil {
		return nil, err
	}

	switch name {
	case EventScanWiFiNetworks:
		return decodeScan(frame)
	case EventSetWiFiAdvanced, EventSetDeviceName, EventSetWiFiCredentials:
		return decodeStatus(name, frame)
	case EventWiFiConnected:
		return WiFiConnectedEvent{}, nil
	case EventWiFiAuthFail:
		return WiFiAuthFailEvent{}, nil
	case EventWiFiDisconnected:
		return WiFiDisconnectedEvent{}, nil
	case EventDHCPError:
		return DHCPErrorEvent{}, nil
	default:
		return UnknownEvent{Name: name}, nil
	}
}

func decodeScan(frame []byte) (Event, error) {
	var p scanPayload
	if err := json.Unmarshal(frame, &p); err != nil {
		return nil, NewMalformedPayloadError(EventScanWiFiNetworks, "invalid scan payload", err)
	}
	if p.Status == nil {
		return nil, NewMalformedPayloadError(EventScanWiFiNetworks, "missing status field", nil)
	}

	switch status := ScanStatus(*p.Status); status {
	case ScanIdle, ScanInProgress:
		return ScanWiFiNetworksEvent{Status: status}, nil
	case ScanComplete:
		networks, err := buildNetworkList(p.SSID, p.RSSI)
		if err != nil {
			return nil, err
		}
		return ScanWiFiNetworksEvent{Status: status, Networks: networks}, nil
	default:
		return nil, NewMalformedPayloadError(EventScanWiFiNetworks,
			fmt.Sprintf("unknown scan status %d", *p.Status), nil)
	}
}

// buildNetworkList zips ssid and rssi in array order
func buildNetworkList(ssids *[]string, rssis *[]int) ([]Network, error) {
	if ssids == nil || rssis == nil {
		return nil, NewMalformedPayloadError(EventScanWiFiNetworks, "scan result requires ssid and rssi arrays", nil)
	}
	if len(*ssids) != len(*rssis) {
		return nil, NewMalformedPayloadError(EventScanWiFiNetworks,
			fmt.Sprintf("ssid/rssi length mismatch: %d != %d", len(*ssids), len(*rssis)), nil)
	}

	networks := make([]Network, len(*ssids))
	for i, ssid := range *ssids {
		networks[i] = NewNetwork(ssid, (*rssis)[i])
	}
	return networks, nil
}

func decodeStatus(name string, frame []byte) (Event, error) {
	var p statusPayload
	if err := json.Unmarshal(frame, &p); err != nil {
		return nil, NewMalformedPayloadError(name, "status must be a boolean", err)
	}
	if p.Status == nil {
		return nil, NewMalformedPayloadError(name, "missing status field", nil)
	}

	switch name {
	case EventSetWiFiAdvanced:
		return SetWiFiAdvancedEvent{OK: *p.Status}, nil
	case EventSetDeviceName:
		return SetDeviceNameEvent{OK: *p.Status}, nil
	default:
		return SetWiFiCredentialsEvent{OK: *p.Status}, nil
	}
}
