package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/config"
	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/session"
	"github.com/muurk/xshcfg/internal/ui"
)

// errNoReply is returned when the device does not answer in time
var errNoReply = errors.New("no reply from device")

// replyWaiter buffers dispatched events for a command waiting on a reply
type replyWaiter struct {
	events chan protocol.Event
}

func newReplyWaiter() *replyWaiter {
	return &replyWaiter{events: make(chan protocol.Event, 32)}
}

// observe is registered as a dispatcher observer. It must not block the
// session read loop.
func (w *replyWaiter) observe(ev protocol.Event) {
	select {
	case w.events <- ev:
	default:
		logging.Warn("Reply buffer full, dropping event", zap.String("event", ev.EventName()))
	}
}

// wait feeds events to done until it reports completion, the session ends,
// ctx is cancelled or timeout elapses
func (w *replyWaiter) wait(ctx context.Context, timeout time.Duration, closed <-chan struct{}, done func(protocol.Event) (bool, error)) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev := <-w.events:
			finished, err := done(ev)
			if err != nil || finished {
				return err
			}
		case <-closed:
			// Events dispatched just before the close are still buffered
			for {
				select {
				case ev := <-w.events:
					if finished, err := done(ev); err != nil || finished {
						return err
					}
				default:
					return fmt.Errorf("connection closed before the device replied")
				}
			}
		case <-timer.C:
			return fmt.Errorf("%w after %s", errNoReply, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ackFor waits for the acknowledgement tagged event and turns status=false
// into a DeviceReportedFailure error
func ackFor(event string) func(protocol.Event) (bool, error) {
	return func(ev protocol.Event) (bool, error) {
		if ev.EventName() != event {
			return false, nil
		}
		if ok, _ := protocol.Result(ev); !ok {
			return true, protocol.NewDeviceReportedFailureError(event)
		}
		return true, nil
	}
}

// deviceConn is an open session with console rendering
type deviceConn struct {
	url      string
	sess     *session.Session
	waiter   *replyWaiter
	printer  *ui.Printer
	renderer *ui.ConsoleRenderer
}

// openDevice resolves the device URL, dials it and starts the read loop
func openDevice(ctx context.Context, cfg *config.Config, out io.Writer) (*deviceConn, error) {
	printer := ui.NewPrinter(out)

	url, err := deviceURLFor(ctx, cfg, printer)
	if err != nil {
		return nil, err
	}

	renderer := ui.NewConsoleRenderer(printer)
	waiter := newReplyWaiter()
	dispatcher := protocol.NewDispatcher(renderer, protocol.WithObserver(waiter.observe))

	sess, err := session.Dial(ctx, session.Options{
		URL:         url,
		DialTimeout: cfg.Device.DialTimeout,
	}, dispatcher)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := sess.Run(ctx); err != nil && !errors.Is(err, session.ErrClosed) {
			logging.Debug("Session ended", zap.Error(err))
		}
	}()

	return &deviceConn{
		url:      url,
		sess:     sess,
		waiter:   waiter,
		printer:  printer,
		renderer: renderer,
	}, nil
}

// Close ends the session
func (d *deviceConn) Close() {
	_ = d.sess.Close()
}

// wait blocks for a reply using the configured timeout
func (d *deviceConn) wait(ctx context.Context, cfg *config.Config, done func(protocol.Event) (bool, error)) error {
	return d.waiter.wait(ctx, cfg.Device.ReplyTimeout, d.sess.Done(), done)
}

// deviceURLFor returns the configured URL, or discovers a single device
func deviceURLFor(ctx context.Context, cfg *config.Config, printer *ui.Printer) (string, error) {
	if cfg.Device.URL != "" || cfg.Device.Address != "" {
		return cfg.Device.WebSocketURL()
	}

	scanner, err := cfg.Discovery.Scanner()
	if err != nil {
		return "", err
	}

	printer.PrintStatus("No device specified, searching the local network...", protocol.SeverityInfo)
	devices, err := scanner.Scan(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	return pickDevice(devices, cfg.Device.Path, printer)
}

func pickDevice(devices []*discovery.Device, path string, printer *ui.Printer) (string, error) {
	switch len(devices) {
	case 0:
		return "", fmt.Errorf("no devices found. Use --device to specify the address manually")
	case 1:
		d := devices[0]
		printer.PrintStatus("Found "+d.String(), protocol.SeveritySuccess)
		return d.WebSocketURL(path), nil
	default:
		printer.PrintDevices(devices, path)
		ids := make([]string, len(devices))
		for i, d := range devices {
			ids[i] = d.ID
		}
		return "", fmt.Errorf("multiple devices found (%s). Use --device to choose one", strings.Join(ids, ", "))
	}
}
