// Package server hosts a WebSocket handler on a TCP listener.
//
// It is used by xsh-sim to expose a simulated device at ws://host:port/ws, or
// at wss:// when a certificate and key are given. Start blocks until the
// context is cancelled or SIGINT/SIGTERM arrives, then closes every open
// connection, including hijacked WebSocket connections that http.Server
// would otherwise leave running.
//
//	srv, err := server.New(&server.Config{Port: 8080}, devicesim.New(cfg))
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package server
