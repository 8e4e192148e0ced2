package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/protocol"
)

const (
	// DefaultDialTimeout bounds the WebSocket handshake
	DefaultDialTimeout = 10 * time.Second

	// DefaultWriteTimeout is the time allowed to write a frame to the device
	DefaultWriteTimeout = 10 * time.Second

	// maxMessageSize caps inbound frames; scan results are the largest frames
	maxMessageSize = 64 * 1024

	// closeGrace is the write deadline for the close frame sent by Close
	closeGrace = time.Second
)

// ErrClosed is returned by Send once the session has left the Open state
var ErrClosed = errors.New("session closed")

// State is the channel lifecycle state
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// stateNone is held only until Dial enters StateConnecting
const stateNone int32 = -1

// String returns the lowercase name of the state
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Options configures a session
type Options struct {
	// URL is the device endpoint, e.g. ws://192.168.4.1/ws
	URL string

	// DialTimeout bounds the handshake (0 = DefaultDialTimeout)
	DialTimeout time.Duration

	// WriteTimeout bounds each Send (0 = DefaultWriteTimeout)
	WriteTimeout time.Duration

	// Header is sent with the upgrade request
	Header http.Header

	// OnStateChange is called on every state transition, from the goroutine
	// that caused it. It must not block.
	OnStateChange func(State)
}

// Session owns the single WebSocket connection to one device.
//
// Run is the only reader: every inbound frame is dispatched to completion
// before the next one is read. Send may be called from any goroutine.
type Session struct {
	id         string
	url        string
	opts       Options
	conn       *websocket.Conn
	dispatcher *protocol.Dispatcher

	state   atomic.Int32
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the device and returns an open session.
// No request is sent on open; the caller decides when to scan.
func Dial(ctx context.Context, opts Options, dispatcher *protocol.Dispatcher) (*Session, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("device URL is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	s := &Session{
		id:         uuid.NewString(),
		url:        opts.URL,
		opts:       opts,
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
	// No state yet, so the first transition reaches OnStateChange
	s.state.Store(stateNone)
	s.setState(StateConnecting)
	logging.LogConnection(s.url, "connecting", zap.String("session_id", s.id))

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.DialTimeout,
	}

	conn, resp, err := dialer.DialContext(dialCtx, opts.URL, opts.Header)
	if err != nil {
		s.setState(StateClosed)
		close(s.done)
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s (HTTP %d): %w", opts.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.URL, err)
	}

	conn.SetReadLimit(maxMessageSize)
	s.conn = conn
	s.setState(StateOpen)
	logging.LogConnection(s.url, "open", zap.String("session_id", s.id))

	return s, nil
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// URL returns the device endpoint
func (s *Session) URL() string {
	return s.url
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the session reaches StateClosed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setState(st State) {
	if State(s.state.Swap(int32(st))) == st {
		return
	}
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(st)
	}
}

// Run reads frames until the connection closes or ctx is cancelled.
// It returns nil on a normal close, or the read error otherwise.
func (s *Session) Run(ctx context.Context) error {
	if s.State() != StateOpen {
		return ErrClosed
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			normal := ctx.Err() != nil || s.isNormalClose(err)
			s.shutdown()
			if normal {
				logging.LogConnection(s.url, "closed", zap.String("session_id", s.id))
				return nil
			}
			logging.Error("Connection lost",
				zap.String("session_id", s.id),
				zap.String("url", s.url),
				zap.Error(err),
			)
			return fmt.Errorf("connection lost: %w", err)
		}

		// A frame that raced with Close is not dispatched
		if s.State() != StateOpen {
			return nil
		}

		switch msgType {
		case websocket.TextMessage:
			logging.LogFrame(s.id, "received", data)
			_ = s.dispatcher.Dispatch(data)
		default:
			logging.Warn("Dropping non-text frame",
				zap.String("session_id", s.id),
				zap.Int("message_type", msgType),
				zap.Int("length", len(data)),
			)
		}
	}
}

func (s *Session) isNormalClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	// Close() was called locally and tore the connection down under the reader
	return s.State() == StateClosed
}

// Send encodes req and writes it as one text frame. Sends are fire-and-forget:
// the reply, if any, arrives later through the dispatcher.
func (s *Session) Send(req protocol.Request) error {
	data, err := protocol.Encode(req)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.State() != StateOpen {
		return ErrClosed
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Error("Failed to send request",
			zap.String("session_id", s.id),
			zap.String("event", req.EventName()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send %s: %w", req.EventName(), err)
	}

	logging.LogFrame(s.id, "sent", data)
	return nil
}

// Close sends a close frame and tears the connection down. No reconnection
// is attempted. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		wasOpen := s.State() == StateOpen
		s.setState(StateClosed)
		if wasOpen {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		}
		s.writeMu.Unlock()

		if s.conn != nil {
			err = s.conn.Close()
		}
		s.finish()
	})
	return err
}

// shutdown moves to Closed after the reader observed the end of the connection
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		s.setState(StateClosed)
		s.writeMu.Unlock()
		_ = s.conn.Close()
		s.finish()
	})
}

func (s *Session) finish() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
