package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestServer(t *testing.T, cfg *Config, h http.Handler) *Server {
	t.Helper()
	srv, err := New(cfg, h)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv
}

func TestNew_Validation(t *testing.T) {
	h := http.NotFoundHandler()

	tests := []struct {
		name    string
		cfg     *Config
		handler http.Handler
		wantErr string
	}{
		{"nil handler", &Config{}, nil, "handler is required"},
		{"cert without key", &Config{CertPath: "cert.pem"}, h, "both cert and key"},
		{"missing cert file", &Config{CertPath: "/nonexistent/cert.pem", KeyPath: "/nonexistent/key.pem"}, h, "TLS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.handler)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := &Config{Path: "socket"}
	srv, err := New(cfg, http.NotFoundHandler())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Path != "/socket" {
		t.Errorf("Path = %q, want /socket", cfg.Path)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if srv.URL() != "" || srv.Addr() != nil {
		t.Error("URL and Addr should be empty before Listen")
	}
}

func TestServer_ServesWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	})

	srv := startTestServer(t, &Config{Host: "127.0.0.1", Port: 0}, echo)
	url := srv.URL()
	if !strings.HasPrefix(url, "ws://127.0.0.1:") || !strings.HasSuffix(url, "/ws") {
		t.Fatalf("URL() = %q", url)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"scan_wifi_networks"}`)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(data) != `{"event":"scan_wifi_networks"}` {
		t.Errorf("echo = %s", data)
	}
	if n := srv.GetActiveConnections(); n != 1 {
		t.Errorf("GetActiveConnections() = %d, want 1", n)
	}
}

func TestServer_ShutdownClosesWebSockets(t *testing.T) {
	upgrader := websocket.Upgrader{}
	hold := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv, err := New(&Config{Host: "127.0.0.1"}, hold)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	conn, _, err := websocket.DefaultDialer.Dial(srv.URL(), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection should be closed by shutdown")
	}
}

func TestServer_ReleasesFinishedWebSockets(t *testing.T) {
	upgrader := websocket.Upgrader{}
	hold := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv := startTestServer(t, &Config{Host: "127.0.0.1", Port: 0}, hold)

	for round := 0; round < 3; round++ {
		conn, _, err := websocket.DefaultDialer.Dial(srv.URL(), nil)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}

	deadline := time.Now().Add(3 * time.Second)
	for srv.GetActiveConnections() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("GetActiveConnections() = %d after clients left, want 0", srv.GetActiveConnections())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
