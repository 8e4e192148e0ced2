package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/logging"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for open connections
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the listener configuration
type Config struct {
	Host     string
	Port     int
	Path     string // WebSocket path the handler is mounted at
	CertPath string // Serve wss:// when both CertPath and KeyPath are set
	KeyPath  string

	// ShutdownTimeout (0 = DefaultShutdownTimeout)
	ShutdownTimeout time.Duration
}

// Server hosts a WebSocket handler, typically a simulated device
type Server struct {
	config     *Config
	handler    http.Handler
	tlsConfig  *tls.Config
	httpServer *http.Server

	mu          sync.Mutex
	listener    net.Listener
	activeConns map[string]net.Conn
	hijacked    map[string]bool
}

// New creates a server for handler
func New(config *Config, handler http.Handler) (*Server, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if (config.CertPath == "") != (config.KeyPath == "") {
		return nil, fmt.Errorf("both cert and key must be provided together, or neither")
	}
	if config.Path == "" {
		config.Path = "/ws"
	}
	if !strings.HasPrefix(config.Path, "/") {
		config.Path = "/" + config.Path
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config:      config,
		handler:     handler,
		activeConns: make(map[string]net.Conn),
		hijacked:    make(map[string]bool),
	}

	if config.CertPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, s.releaseOnReturn(handler))

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ConnState:         s.trackConn,
	}
	return s, nil
}

// Listen binds the listening socket. Start calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the WebSocket URL clients should dial
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	scheme := "ws"
	if s.tlsConfig != nil {
		scheme = "wss"
	}
	return scheme + "://" + addr.String() + s.config.Path
}

// Start serves until ctx is cancelled, SIGINT/SIGTERM arrives, or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	fields := []zap.Field{zap.String("url", s.URL())}
	if s.tlsConfig != nil {
		fields = append(fields, zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}
	logging.Info("Server listening for connections", fields...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) trackConn(conn net.Conn, state http.ConnState) {
	remoteAddr := conn.RemoteAddr().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch state {
	case http.StateNew:
		s.activeConns[remoteAddr] = conn
		logging.LogConnection(remoteAddr, "connection_accepted")
	case http.StateHijacked:
		s.hijacked[remoteAddr] = true
	case http.StateClosed:
		delete(s.activeConns, remoteAddr)
		delete(s.hijacked, remoteAddr)
		logging.LogConnection(remoteAddr, "connection_closed")
	}
}

// releaseOnReturn untracks a hijacked connection once its handler returns;
// net/http reports no StateClosed after a hijack
func (s *Server) releaseOnReturn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.hijacked[r.RemoteAddr] {
				delete(s.hijacked, r.RemoteAddr)
				delete(s.activeConns, r.RemoteAddr)
				logging.LogConnection(r.RemoteAddr, "connection_closed")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops accepting connections and closes the open ones
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	// http.Server.Shutdown does not touch hijacked connections
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Debug("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
		delete(s.activeConns, addr)
		delete(s.hijacked, addr)
	}
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		logging.Warn("Shutdown timeout, forcing close")
		err = s.httpServer.Close()
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of tracked connections,
// hijacked WebSocket connections included
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
