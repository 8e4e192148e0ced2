package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/xshcfg/internal/config"
	"github.com/muurk/xshcfg/internal/panel"
	"github.com/muurk/xshcfg/internal/protocol"
	"github.com/muurk/xshcfg/internal/ui"
	"github.com/muurk/xshcfg/internal/wizard/tui"
)

// Command flags
var (
	discoverTimeout time.Duration
	noJoinWait      bool
	assumeYes       bool
	monitorScan     bool
	forceInit       bool
)

func init() {
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(setWiFiCmd)
	rootCmd.AddCommand(setNameCmd)
	rootCmd.AddCommand(setIPCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(configCmd)

	discoverCmd.Flags().DurationVar(&discoverTimeout, "scan-time", 0, "How long to listen for mDNS announcements (default from config)")
	setWiFiCmd.Flags().BoolVar(&noJoinWait, "no-wait", false, "Return once the credentials are saved, without waiting for the join result")
	rebootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	monitorCmd.Flags().BoolVar(&monitorScan, "scan", false, "Request a network scan after connecting")
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// commandContext is cancelled on SIGINT/SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// wizardCmd launches the interactive control panel
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive control panel",
	Long: `Launch a full-screen control panel for one device.

The panel shows the networks the device can see, and lets you enter
WiFi credentials, a device name and static IP settings, each submitted
on its own. Without --device or --url it first searches the local
network for devices.

This is the default command.`,
	Example: `  # Discover and pick a device
  xsh-cfg

  # Connect straight to a device
  xsh-cfg wizard --device 192.168.4.1`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the control panel needs a terminal; use a subcommand such as 'xsh-cfg networks'")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := tui.Options{
		Path:        appCfg.Device.Path,
		DialTimeout: appCfg.Device.DialTimeout,
	}
	if appCfg.Device.URL != "" || appCfg.Device.Address != "" {
		url, err := appCfg.Device.WebSocketURL()
		if err != nil {
			return err
		}
		opts.URL = url
	} else {
		scanner, err := appCfg.Discovery.Scanner()
		if err != nil {
			return err
		}
		opts.Scanner = scanner
	}

	return tui.Run(ctx, opts)
}

// discoverCmd finds devices on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover XSH devices on the network",
	Long: `Discover XSH devices using mDNS/DNS-SD.

Devices advertise an HTTP service under a hostname like xsh-<id>.local.
Every device found is listed with the WebSocket URL to reach it.`,
	Example: `  xsh-cfg discover
  xsh-cfg discover --scan-time 10s`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	scanner, err := appCfg.Discovery.Scanner()
	if err != nil {
		return err
	}
	if discoverTimeout > 0 {
		scanner.Timeout = discoverTimeout
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Device Discovery", "xsh-cfg discover",
		ui.Param{Key: "Service", Value: scanner.Service + "." + scanner.Domain},
		ui.Param{Key: "Timeout", Value: scanner.Timeout.String()},
	)

	devices, err := scanner.Scan(ctx)
	if err != nil {
		printer.PrintResult(ui.NewFailureResult("Discovery failed", err, []string{
			"Check that multicast traffic is allowed on this network",
			"Use --device to connect to a known address",
		}))
		return fmt.Errorf("discovery failed: %w", err)
	}

	printer.PrintDevices(devices, appCfg.Device.Path)
	printer.Newline()
	if len(devices) == 0 {
		printer.PrintResult(ui.NewWarningResult("No devices found").
			AddDetail("Tip", "Ensure the device is powered on and on this network").
			AddDetail("Tip", "Try a longer --scan-time"))
		return nil
	}
	printer.PrintResult(ui.NewSuccessResult(fmt.Sprintf("Found %d device(s)", len(devices))))
	return nil
}

// networksCmd asks the device for a WiFi scan
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the WiFi networks the device can see",
	Example: `  xsh-cfg networks --device 192.168.4.1`,
	Args:    cobra.NoArgs,
	RunE:    runNetworks,
}

func runNetworks(cmd *cobra.Command, args []string) error {
	return exchange(cmd, "WiFi Scan", nil, (*panel.Panel).ScanNetworks,
		func(ev protocol.Event) (bool, error) {
			scan, ok := ev.(protocol.ScanWiFiNetworksEvent)
			if !ok {
				return false, nil
			}
			switch scan.Status {
			case protocol.ScanComplete:
				return true, nil
			case protocol.ScanIdle:
				return true, fmt.Errorf("device has no scan results")
			}
			return false, nil
		})
}

// setWiFiCmd submits WiFi credentials
var setWiFiCmd = &cobra.Command{
	Use:   "set-wifi <ssid> [password]",
	Short: "Set the WiFi network the device joins",
	Long: `Send WiFi credentials to the device and wait for the join result.

The SSID and password are sent exactly as given. Omit the password for
an open network. By default the command waits until the device reports
that it joined the network, or why it could not.`,
	Example: `  xsh-cfg set-wifi Home correct-horse --device 192.168.4.1
  xsh-cfg set-wifi Cafe --device 192.168.4.1 --no-wait`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSetWiFi,
}

func runSetWiFi(cmd *cobra.Command, args []string) error {
	values := panel.Values{protocol.FieldSSID: args[0]}
	if len(args) == 2 {
		values[protocol.FieldPassword] = args[1]
	}

	acked := false
	ack := ackFor(protocol.EventSetWiFiCredentials)
	return exchange(cmd, "Set WiFi", values, (*panel.Panel).SubmitCredentials,
		func(ev protocol.Event) (bool, error) {
			if !acked {
				done, err := ack(ev)
				if err != nil || !done {
					return done, err
				}
				acked = true
				return noJoinWait, nil
			}
			switch ev.(type) {
			case protocol.WiFiConnectedEvent:
				return true, nil
			case protocol.WiFiAuthFailEvent:
				return true, fmt.Errorf("device could not join %q: authentication failed", args[0])
			case protocol.WiFiDisconnectedEvent:
				return true, fmt.Errorf("device could not join %q", args[0])
			}
			return false, nil
		})
}

// setNameCmd sets the device name
var setNameCmd = &cobra.Command{
	Use:     "set-name <name>",
	Short:   "Set the device name",
	Example: `  xsh-cfg set-name kitchen --device 192.168.4.1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exchange(cmd, "Set Device Name",
			panel.Values{protocol.FieldDeviceName: args[0]},
			(*panel.Panel).SubmitDeviceName,
			ackFor(protocol.EventSetDeviceName))
	},
}

// setIPCmd assigns static IP settings
var setIPCmd = &cobra.Command{
	Use:   "set-ip <local_ip> <gateway> <subnet>",
	Short: "Assign a static IP address",
	Long: `Send static IP settings to the device.

All three values must be dotted-quad IPv4 addresses. They are checked
before anything is sent; nothing is sent if any of them is invalid.`,
	Example: `  xsh-cfg set-ip 192.168.1.50 192.168.1.1 255.255.255.0 --device 192.168.4.1`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := panel.Values{
			protocol.FieldLocalIP: args[0],
			protocol.FieldGateway: args[1],
			protocol.FieldSubnet:  args[2],
		}
		// Fail before dialling when the input is invalid
		if _, err := protocol.NewSetWiFiAdvanced(args[0], args[1], args[2]); err != nil {
			return err
		}
		return exchange(cmd, "Set Static IP", values,
			(*panel.Panel).SubmitAdvanced,
			ackFor(protocol.EventSetWiFiAdvanced))
	},
}

// rebootCmd restarts the device
var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the device",
	Long: `Ask the device to restart. The connection drops when it does and is
not re-established.`,
	Example: `  xsh-cfg reboot --device 192.168.4.1 --yes`,
	Args:    cobra.NoArgs,
	RunE:    runReboot,
}

func runReboot(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	conn, err := openDevice(ctx, appCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer conn.Close()

	if !assumeYes && !conn.printer.ConfirmReboot(cmd.InOrStdin(), conn.url) {
		conn.printer.PrintStatus("Reboot cancelled", protocol.SeverityWarning)
		return nil
	}

	p := panel.New(panel.Values{}, conn.renderer, conn.sess)
	if err := p.Reboot(); err != nil {
		return err
	}

	select {
	case <-conn.sess.Done():
		conn.printer.PrintResult(ui.NewSuccessResult("Device is rebooting",
			ui.Param{Key: "Device", Value: conn.url}))
		return nil
	case <-time.After(appCfg.Device.ReplyTimeout):
		conn.printer.PrintResult(ui.NewWarningResult("Reboot requested",
			ui.Param{Key: "Device", Value: conn.url},
			ui.Param{Key: "Note", Value: "the device has not closed the connection yet"}))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// monitorCmd prints inbound events
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print every event the device sends",
	Long: `Connect to the device and print status events as they arrive, until
interrupted or the device closes the connection.`,
	Example: `  xsh-cfg monitor --device 192.168.4.1 --scan`,
	Args:    cobra.NoArgs,
	RunE:    runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	conn, err := openDevice(ctx, appCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.printer.PrintHeader("Event Monitor", "xsh-cfg monitor",
		ui.Param{Key: "Device", Value: conn.url},
		ui.Param{Key: "Session", Value: conn.sess.ID()},
	)

	if monitorScan {
		if err := panel.New(panel.Values{}, conn.renderer, conn.sess).ScanNetworks(); err != nil {
			return err
		}
	}

	for {
		select {
		case ev := <-conn.waiter.events:
			if u, ok := ev.(protocol.UnknownEvent); ok {
				conn.printer.PrintStatus("Unknown event "+u.Name, protocol.SeverityInfo)
			}
		case <-conn.sess.Done():
			conn.printer.PrintStatus("Connection closed", protocol.SeverityWarning)
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// exchange connects, runs one panel action and waits for its reply
func exchange(cmd *cobra.Command, title string, values panel.Values, action func(*panel.Panel) error, done func(protocol.Event) (bool, error)) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	conn, err := openDevice(ctx, appCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.printer.PrintHeader(title, cmd.CommandPath(), ui.Param{Key: "Device", Value: conn.url})

	if values == nil {
		values = panel.Values{}
	}
	if err := action(panel.New(values, conn.renderer, conn.sess)); err != nil {
		return err
	}

	if err := conn.wait(ctx, appCfg, done); err != nil {
		conn.printer.Newline()
		conn.printer.PrintResult(ui.NewFailureResult(title+" failed", err, troubleshootingFor(err)))
		return err
	}

	conn.printer.Newline()
	conn.printer.PrintResult(ui.NewSuccessResult(title + " complete"))
	return nil
}

func troubleshootingFor(err error) []string {
	switch {
	case errors.Is(err, errNoReply):
		return []string{
			"The device may be busy; try again or raise --timeout",
			"Check that --path matches the device's WebSocket path",
		}
	case protocol.IsDeviceReportedFailure(err):
		return []string{"The device rejected the request; check the values sent"}
	}
	return nil
}

// configCmd groups config file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := appCfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
