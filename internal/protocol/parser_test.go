package protocol

import (
	"reflect"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Event
		wantErr bool
	}{
		{
			name:  "scan results",
			frame: `{"event":"scan_wifi_networks","status":1,"ssid":["Home","Cafe"],"rssi":[-40,-85]}`,
			want: ScanWiFiNetworksEvent{
				Status: ScanComplete,
				Networks: []Network{
					{SSID: "Home", RSSI: -40, Signal: 60},
					{SSID: "Cafe", RSSI: -85, Signal: 15},
				},
			},
		},
		{
			name:  "scan results empty",
			frame: `{"event":"scan_wifi_networks","status":1,"ssid":[],"rssi":[]}`,
			want:  ScanWiFiNetworksEvent{Status: ScanComplete, Networks: []Network{}},
		},
		{
			name:  "scan idle",
			frame: `{"event":"scan_wifi_networks","status":0}`,
			want:  ScanWiFiNetworksEvent{Status: ScanIdle},
		},
		{
			name:  "scan in progress ignores arrays",
			frame: `{"event":"scan_wifi_networks","status":2,"ssid":["x"]}`,
			want:  ScanWiFiNetworksEvent{Status: ScanInProgress},
		},
		{
			name:    "scan results length mismatch",
			frame:   `{"event":"scan_wifi_networks","status":1,"ssid":["Home","Cafe"],"rssi":[-40]}`,
			wantErr: true,
		},
		{
			name:    "scan results missing rssi",
			frame:   `{"event":"scan_wifi_networks","status":1,"ssid":["Home"]}`,
			wantErr: true,
		},
		{
			name:    "scan missing status",
			frame:   `{"event":"scan_wifi_networks"}`,
			wantErr: true,
		},
		{
			name:    "scan unknown status",
			frame:   `{"event":"scan_wifi_networks","status":7}`,
			wantErr: true,
		},
		{
			name:    "scan rssi wrong type",
			frame:   `{"event":"scan_wifi_networks","status":1,"ssid":["a"],"rssi":["weak"]}`,
			wantErr: true,
		},
		{
			name:  "set wifi advanced ok",
			frame: `{"event":"set_wifi_advanced","status":true}`,
			want:  SetWiFiAdvancedEvent{OK: true},
		},
		{
			name:  "set device name failed",
			frame: `{"event":"set_device_name","status":false}`,
			want:  SetDeviceNameEvent{OK: false},
		},
		{
			name:  "set wifi credentials ok",
			frame: `{"event":"set_wifi_credentials","status":true}`,
			want:  SetWiFiCredentialsEvent{OK: true},
		},
		{
			name:    "set status not a bool",
			frame:   `{"event":"set_device_name","status":1}`,
			wantErr: true,
		},
		{
			name:    "set status missing",
			frame:   `{"event":"set_wifi_credentials"}`,
			wantErr: true,
		},
		{name: "wifi connected", frame: `{"event":"wifi_connected"}`, want: WiFiConnectedEvent{}},
		{name: "wifi auth fail", frame: `{"event":"wifi_auth_fail"}`, want: WiFiAuthFailEvent{}},
		{name: "wifi disconnected", frame: `{"event":"wifi_disconnected"}`, want: WiFiDisconnectedEvent{}},
		{name: "dhcp error", frame: `{"event":"dhcp_error"}`, want: DHCPErrorEvent{}},
		{
			name:  "unknown tag",
			frame: `{"event":"firmware_update","progress":40}`,
			want:  UnknownEvent{Name: "firmware_update"},
		},
		{
			name:  "legacy misspelled tag is unknown",
			frame: `{"event":"set_wifi_advenced","status":true}`,
			want:  UnknownEvent{Name: "set_wifi_advenced"},
		},
		{name: "not json", frame: `hello`, wantErr: true},
		{name: "truncated json", frame: `{"event":"dhcp_error"`, wantErr: true},
		{name: "json array", frame: `["dhcp_error"]`, wantErr: true},
		{name: "missing event", frame: `{"status":1}`, wantErr: true},
		{name: "event not a string", frame: `{"event":5}`, wantErr: true},
		{name: "empty frame", frame: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.frame))

			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsMalformedPayload(err) {
					t.Errorf("expected MalformedPayload error, got %T: %v", err, err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeEvent_ListLengthMatchesArrays(t *testing.T) {
	frame := `{"event":"scan_wifi_networks","status":1,"ssid":["a","b","c","d"],"rssi":[-10,-20,-30,-40]}`

	ev, err := DecodeEvent([]byte(frame))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	scan := ev.(ScanWiFiNetworksEvent)
	if len(scan.Networks) != 4 {
		t.Fatalf("len(Networks) = %d, want 4", len(scan.Networks))
	}

	// order follows array order, no sorting
	wantOrder := []string{"a", "b", "c", "d"}
	for i, n := range scan.Networks {
		if n.SSID != wantOrder[i] {
			t.Errorf("Networks[%d].SSID = %q, want %q", i, n.SSID, wantOrder[i])
		}
	}
}

func TestSignalPercent(t *testing.T) {
	tests := []struct {
		rssi int
		want int
	}{
		{-100, 0},
		{-30, 70},
		{0, 100},
		{-150, 0},
		{50, 100},
		{-40, 60},
		{-85, 15},
		{-1, 99},
	}

	for _, tt := range tests {
		if got := SignalPercent(tt.rssi); got != tt.want {
			t.Errorf("SignalPercent(%d) = %d, want %d", tt.rssi, got, tt.want)
		}
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		name       string
		ev         Event
		wantStatus bool
		wantOK     bool
	}{
		{"advanced ok", SetWiFiAdvancedEvent{OK: true}, true, true},
		{"name failed", SetDeviceNameEvent{OK: false}, false, true},
		{"credentials ok", SetWiFiCredentialsEvent{OK: true}, true, true},
		{"connected is not a result", WiFiConnectedEvent{}, false, false},
		{"scan is not a result", ScanWiFiNetworksEvent{Status: ScanComplete}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := Result(tt.ev)
			if status != tt.wantStatus || ok != tt.wantOK {
				t.Errorf("Result() = (%v, %v), want (%v, %v)", status, ok, tt.wantStatus, tt.wantOK)
			}
		})
	}
}
