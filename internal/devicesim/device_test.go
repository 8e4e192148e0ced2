package devicesim

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/xshcfg/internal/protocol"
)

func startDevice(t *testing.T, cfg Config) (*Device, *websocket.Conn) {
	t.Helper()

	dev := New(cfg)
	srv := httptest.NewServer(dev)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return dev, conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) protocol.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	ev, err := protocol.DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent(%s) error = %v", data, err)
	}
	return ev
}

func TestDevice_Scan(t *testing.T) {
	_, conn := startDevice(t, Config{
		Networks: []Network{{SSID: "A", RSSI: -40}, {SSID: "B", RSSI: -85}},
	})

	send(t, conn, `{"event":"scan_wifi_networks"}`)

	first, ok := readEvent(t, conn).(protocol.ScanWiFiNetworksEvent)
	if !ok || first.Status != protocol.ScanInProgress {
		t.Fatalf("first reply = %#v, want in-progress scan", first)
	}

	second, ok := readEvent(t, conn).(protocol.ScanWiFiNetworksEvent)
	if !ok || second.Status != protocol.ScanComplete {
		t.Fatalf("second reply = %#v, want completed scan", second)
	}
	if len(second.Networks) != 2 {
		t.Fatalf("got %d networks, want 2", len(second.Networks))
	}
	if second.Networks[0].SSID != "A" || second.Networks[0].Signal != 60 {
		t.Errorf("Networks[0] = %+v, want A at 60%%", second.Networks[0])
	}
	if second.Networks[1].SSID != "B" || second.Networks[1].Signal != 15 {
		t.Errorf("Networks[1] = %+v, want B at 15%%", second.Networks[1])
	}
}

func TestDevice_Credentials(t *testing.T) {
	networks := []Network{
		{SSID: "Home", RSSI: -50, Password: "secret"},
		{SSID: "Open", RSSI: -60},
	}

	tests := []struct {
		name     string
		cfg      Config
		frame    string
		wantAck  bool
		wantNext []string
	}{
		{
			name:     "correct password",
			cfg:      Config{Networks: networks},
			frame:    `{"event":"set_wifi_credentials","ssid":"Home","password":"secret"}`,
			wantAck:  true,
			wantNext: []string{protocol.EventWiFiConnected},
		},
		{
			name:     "wrong password",
			cfg:      Config{Networks: networks},
			frame:    `{"event":"set_wifi_credentials","ssid":"Home","password":"nope"}`,
			wantAck:  true,
			wantNext: []string{protocol.EventWiFiAuthFail},
		},
		{
			name:     "open network",
			cfg:      Config{Networks: networks},
			frame:    `{"event":"set_wifi_credentials","ssid":"Open","password":""}`,
			wantAck:  true,
			wantNext: []string{protocol.EventWiFiConnected},
		},
		{
			name:     "unknown network",
			cfg:      Config{Networks: networks},
			frame:    `{"event":"set_wifi_credentials","ssid":"Elsewhere","password":"x"}`,
			wantAck:  true,
			wantNext: []string{protocol.EventWiFiDisconnected},
		},
		{
			name:     "dhcp failure",
			cfg:      Config{Networks: networks, DHCPFailure: true},
			frame:    `{"event":"set_wifi_credentials","ssid":"Open","password":""}`,
			wantAck:  true,
			wantNext: []string{protocol.EventWiFiConnected, protocol.EventDHCPError},
		},
		{
			name:    "empty ssid",
			cfg:     Config{Networks: networks},
			frame:   `{"event":"set_wifi_credentials","ssid":"","password":""}`,
			wantAck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, conn := startDevice(t, tt.cfg)
			send(t, conn, tt.frame)

			ack, ok := readEvent(t, conn).(protocol.SetWiFiCredentialsEvent)
			if !ok {
				t.Fatalf("first reply is not a credentials ack")
			}
			if ack.OK != tt.wantAck {
				t.Errorf("ack = %v, want %v", ack.OK, tt.wantAck)
			}

			for _, want := range tt.wantNext {
				if got := readEvent(t, conn).EventName(); got != want {
					t.Errorf("next event = %s, want %s", got, want)
				}
			}
		})
	}
}

func TestDevice_NameAndAdvanced(t *testing.T) {
	dev, conn := startDevice(t, Config{Name: "xsh-1"})

	send(t, conn, `{"event":"set_device_name","name":"kitchen"}`)
	if ev, _ := readEvent(t, conn).(protocol.SetDeviceNameEvent); !ev.OK {
		t.Error("set_device_name should be accepted")
	}

	send(t, conn, `{"event":"set_device_name","name":""}`)
	if ev, _ := readEvent(t, conn).(protocol.SetDeviceNameEvent); ev.OK {
		t.Error("empty name should be rejected")
	}

	send(t, conn, `{"event":"set_wifi_advanced","local_ip":"192.168.1.50","gateway":"192.168.1.1","subnet":"255.255.255.0"}`)
	if ev, _ := readEvent(t, conn).(protocol.SetWiFiAdvancedEvent); !ev.OK {
		t.Error("valid static IP should be accepted")
	}

	send(t, conn, `{"event":"set_wifi_advanced","local_ip":"10.0.0.999","gateway":"10.0.0.1","subnet":"255.0.0.0"}`)
	if ev, _ := readEvent(t, conn).(protocol.SetWiFiAdvancedEvent); ev.OK {
		t.Error("invalid static IP should be rejected")
	}

	s := dev.Settings()
	if s.Name != "kitchen" {
		t.Errorf("Name = %q, want kitchen", s.Name)
	}
	if s.LocalIP != "192.168.1.50" || s.Gateway != "192.168.1.1" || s.Subnet != "255.255.255.0" {
		t.Errorf("static IP settings = %+v", s)
	}
}

func TestDevice_Reboot(t *testing.T) {
	dev, conn := startDevice(t, Config{})

	send(t, conn, `{"event":"reboot_device"}`)
	if got := readEvent(t, conn).EventName(); got != protocol.EventWiFiDisconnected {
		t.Fatalf("reboot reply = %s, want %s", got, protocol.EventWiFiDisconnected)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
	if dev.Settings().Reboots != 1 {
		t.Errorf("Reboots = %d, want 1", dev.Settings().Reboots)
	}
}

func TestDevice_IgnoresGarbage(t *testing.T) {
	dev, conn := startDevice(t, Config{})

	send(t, conn, `not json`)
	send(t, conn, `{"event":"set_wifi_advenced"}`)
	send(t, conn, `{"event":"set_device_name","name":"still-here"}`)

	if ev, _ := readEvent(t, conn).(protocol.SetDeviceNameEvent); !ev.OK {
		t.Error("device should keep serving after garbage")
	}

	reqs := dev.Received()
	if len(reqs) != 1 {
		t.Fatalf("Received() = %d requests, want 1", len(reqs))
	}
	if name, ok := reqs[0].(protocol.SetDeviceName); !ok || name.Name != "still-here" {
		t.Errorf("Received()[0] = %#v", reqs[0])
	}
}
