// Package config provides user configuration for the XSH configuration tools.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A YAML file in the platform configuration directory
//  3. XSH_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/xsh-cfg/config.yaml or $HOME/.config/xsh-cfg/config.yaml
//   - macOS: $HOME/.config/xsh-cfg/config.yaml
//   - Windows: %LOCALAPPDATA%\xsh-cfg\config.yaml
//
// A missing file is not an error; defaults are used.
//
// # Security
//
// IMPORTANT: This package NEVER stores WiFi passwords or any setting pushed to
// the device. Those are entered each time they are sent.
//
// # Usage Example
//
//	cfg, err := config.Resolve("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	url, err := cfg.Device.WebSocketURL()
//
// # Environment Variables
//
//	XSH_DEVICE                  device host or host:port
//	XSH_WS_PATH                 WebSocket path (default /ws)
//	XSH_URL                     full ws:// URL, overrides device and path
//	XSH_DIAL_TIMEOUT            e.g. 5s
//	XSH_REPLY_TIMEOUT           e.g. 10s
//	XSH_LOG_LEVEL               debug, info, warn, error
//	XSH_LOG_FILE                log file path
//	XSH_DISCOVERY_TIMEOUT       e.g. 5s
//	XSH_DISCOVERY_HOSTNAME_PATTERN
package config
