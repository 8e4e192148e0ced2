// Xsh-cfg is the configuration utility for XSH WiFi devices.
//
// It talks to a device over its WebSocket configuration channel: it can
// discover devices with mDNS, scan for WiFi networks, submit credentials, set
// the device name, assign a static IP and reboot the device. Running without
// arguments launches the interactive control panel.
//
// Usage:
//
//	xsh-cfg [command] [flags]
//
// See 'xsh-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/xshcfg/internal/config"
	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Persistent flags
var (
	configPath   string
	deviceAddr   string
	wsPath       string
	deviceURL    string
	logLevel     string
	logFile      string
	replyTimeout time.Duration
)

// appCfg is the effective configuration: defaults, file, environment, flags
var appCfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "xsh-cfg",
	Short: "XSH Device Configuration Utility",
	Long: `A standalone utility for configuring XSH WiFi devices.

Connects to the device's WebSocket configuration channel to scan for
networks, set WiFi credentials, name the device, assign a static IP
and reboot it.

If no command is specified, the interactive control panel will launch.`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Set here: loadConfig refers back to rootCmd
	rootCmd.PersistentPreRunE = loadConfig

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default is the platform config dir)")
	pf.StringVar(&deviceAddr, "device", "", "Device host or host:port (skips discovery)")
	pf.StringVar(&wsPath, "path", config.DefaultPath, "WebSocket path on the device")
	pf.StringVar(&deviceURL, "url", "", "Full WebSocket URL, overrides --device and --path")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty = silent")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	pf.DurationVar(&replyTimeout, "timeout", config.DefaultReplyTimeout, "How long to wait for the device to reply")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration and initializes logging. Flags that
// were set explicitly override the file and the environment.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device.Address = deviceAddr
	}
	if flags.Changed("path") {
		cfg.Device.Path = wsPath
	}
	if flags.Changed("url") {
		cfg.Device.URL = deviceURL
	}
	if flags.Changed("timeout") {
		cfg.Device.ReplyTimeout = replyTimeout
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The control panel owns the terminal, so its logs always go to a file
	if isInteractive(cmd) && cfg.Logging.Level != "" && cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(os.TempDir(), "xsh-cfg.log")
	}

	if err := logging.InitializeWithOptions(cfg.Logging.Options()); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	appCfg = cfg
	return nil
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == wizardCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Works without a readable config file
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "xsh-cfg %s\n", version.Detailed())
	},
}
