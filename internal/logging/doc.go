// Package logging provides structured logging for the XSH configuration tools.
//
// This package wraps a package-global zap logger with convenience functions
// used throughout the client, the session transport and the device simulator.
//
// # Silent By Default
//
// CLI commands print their own user-facing output, so logging is disabled
// unless a level is given explicitly (flag, config file) or through the
// XSH_LOG_LEVEL environment variable:
//
//	XSH_LOG_LEVEL=debug xsh-cfg networks --device 192.168.4.1
//
// # Log Levels
//
//   - Debug: every WebSocket frame, dispatch decisions
//   - Info: connection lifecycle, scan results
//   - Warn: malformed frames, device-reported failures
//   - Error: transport failures
//
// # File Output
//
// When Options.File is set, entries go to a lumberjack-rotated file rather
// than stdout. The interactive control panel always logs this way because it
// owns the terminal:
//
//	err := logging.InitializeWithOptions(logging.Options{
//	    Level: "debug",
//	    File:  "/tmp/xsh-cfg.log",
//	})
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize should be
// called once, before any goroutines start logging.
package logging
