// Xsh-sim runs a simulated XSH device.
//
// It serves the device side of the WebSocket configuration protocol so that
// xsh-cfg can be developed and tried without hardware. Scans return a fixed
// set of networks, credentials are checked against their passwords, and
// reboot closes the connection.
//
// Usage:
//
//	xsh-sim [flags]
//
// See 'xsh-sim --help' for available options.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/xshcfg/internal/devicesim"
	"github.com/muurk/xshcfg/internal/logging"
	"github.com/muurk/xshcfg/internal/server"
	"github.com/muurk/xshcfg/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	listenAddr   string
	wsPath       string
	scanDelay    time.Duration
	dhcpFailure  bool
	networksFile string
	deviceName   string
	certPath     string
	keyPath      string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "xsh-sim",
	Short: "Simulated XSH device",
	Long: `Serve a simulated XSH device on a WebSocket endpoint.

The simulator answers every configuration request the way a real
device does, logs each frame it receives, and keeps the settings it
accepted in memory until it exits.`,
	Example: `  # Serve ws://localhost:8080/ws with the built-in networks
  xsh-sim

  # Custom networks, slow scans and DHCP failures after every join
  xsh-sim --networks networks.yaml --scan-delay 3s --dhcp-failure

  # Serve wss:// with your own certificate
  xsh-sim --listen :8443 --cert cert.pem --key key.pem`,
	Version:      version.Version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runSimulator,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	f := rootCmd.Flags()
	f.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	f.StringVar(&wsPath, "path", "/ws", "WebSocket path")
	f.DurationVar(&scanDelay, "scan-delay", devicesim.DefaultScanDelay, "Time between the scan 'in progress' and 'results' replies")
	f.BoolVar(&dhcpFailure, "dhcp-failure", false, "Report dhcp_error after every successful join")
	f.StringVar(&networksFile, "networks", "", "YAML file listing the networks a scan returns")
	f.StringVar(&deviceName, "name", "xsh-sim", "Initial device name")
	f.StringVar(&certPath, "cert", "", "TLS certificate file (serves wss:// with --key)")
	f.StringVar(&keyPath, "key", "", "TLS private key file")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// networksDocument is the --networks file layout
type networksDocument struct {
	Networks []devicesim.Network `yaml:"networks"`
}

func loadNetworks(path string) ([]devicesim.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read networks file: %w", err)
	}
	var doc networksDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse networks file %s: %w", path, err)
	}
	if doc.Networks == nil {
		doc.Networks = []devicesim.Network{}
	}
	return doc.Networks, nil
}

func runSimulator(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	host, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return fmt.Errorf("invalid --listen address %q: %w", listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid --listen port %q: %w", portStr, err)
	}

	simCfg := devicesim.Config{
		ScanDelay:   scanDelay,
		DHCPFailure: dhcpFailure,
		Name:        deviceName,
	}
	if networksFile != "" {
		networks, err := loadNetworks(networksFile)
		if err != nil {
			return err
		}
		simCfg.Networks = networks
	}
	device := devicesim.New(simCfg)

	srv, err := server.New(&server.Config{
		Host:     host,
		Port:     port,
		Path:     wsPath,
		CertPath: certPath,
		KeyPath:  keyPath,
	}, device)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Simulated device listening on %s\n", srv.URL())

	err = srv.Start(context.Background())

	s := device.Settings()
	logging.Info("Simulator stopped",
		zap.Int("requests", len(device.Received())),
		zap.String("name", s.Name),
		zap.String("ssid", s.SSID),
		zap.String("local_ip", s.LocalIP),
		zap.Int("reboots", s.Reboots),
	)
	return err
}
