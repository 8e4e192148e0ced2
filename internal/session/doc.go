// Package session manages the WebSocket channel to one XSH device.
//
// A Session moves through three states and never goes back:
//
//	Connecting -> Open -> Closed
//
// Nothing is sent implicitly when the session opens. When it closes (device
// hung up, read error, Close, or context cancellation) inbound frames stop
// being dispatched and Send returns ErrClosed. Reconnection is left to the
// caller: dial a new Session.
//
// # Usage Example
//
//	d := protocol.NewDispatcher(renderer)
//	sess, err := session.Dial(ctx, session.Options{URL: "ws://192.168.4.1/ws"}, d)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	go sess.Run(ctx)
//	err = sess.Send(protocol.ScanWiFiNetworks{})
//
// Each session gets a random identifier that is attached to its log entries.
package session
