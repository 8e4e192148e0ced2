package tui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
)

// Options configures the interactive control panel
type Options struct {
	// URL of the device; empty starts with mDNS discovery
	URL string

	// Path used for discovered devices
	Path string

	// DialTimeout bounds the WebSocket handshake
	DialTimeout time.Duration

	// Scanner finds devices when no URL is given; nil disables discovery
	Scanner *discovery.Scanner
}

// Run starts the control panel and blocks until the user quits
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer := NewProgramRenderer(nil)
	var current atomic.Pointer[session.Session]

	connect := func(url string) tea.Cmd {
		return func() tea.Msg {
			dispatcher := protocol.NewDispatcher(renderer)
			sess, err := session.Dial(ctx, session.Options{
				URL:           url,
				DialTimeout:   opts.DialTimeout,
				OnStateChange: renderer.StateChanged,
			}, dispatcher)
			if err != nil {
				return connectFailedMsg{err: err}
			}
			current.Store(sess)

			go func() {
				err := sess.Run(ctx)
				renderer.send(sessionEndedMsg{err: err})
			}()
			return connectedMsg{sender: sess}
		}
	}

	cfg := Config{
		URL:      opts.URL,
		Path:     opts.Path,
		Renderer: renderer,
		Connect:  connect,
	}
	if opts.Scanner != nil {
		cfg.Discover = func() ([]*discovery.Device, error) {
			return opts.Scanner.Scan(ctx)
		}
	}

	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	renderer.Attach(p)

	_, err := p.Run()
	cancel()
	if sess := current.Load(); sess != nil {
		if cerr := sess.Close(); cerr != nil {
			logging.Debug("Closing session", zap.Error(cerr))
		}
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("control panel: %w", err)
	}
	return nil
}
