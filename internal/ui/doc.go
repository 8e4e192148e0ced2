// Package ui provides terminal output for the xsh-cfg one-shot commands.
//
// Output follows a header → events → result flow:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Network Scan", "xsh-cfg networks", ui.Param{Key: "Device", Value: url})
//	renderer := ui.NewConsoleRenderer(p) // implements protocol.Renderer
//	...
//	p.PrintResult(ui.NewSuccessResult("Scan complete"))
//
// ConsoleRenderer prints each dispatcher call as one line as it happens, so
// it can be driven straight from the session read loop.
//
// The palette and SeverityColor are shared with the interactive control
// panel in internal/wizard/tui.
//
// # Logging Integration
//
// zap logging is silent unless XSH_LOG_LEVEL (or --log-level) is set, so the
// styled output is not interleaved with log lines.
package ui
