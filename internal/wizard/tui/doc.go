// Package tui implements the full-screen XSH control panel.
//
// The panel is a single Bubble Tea model with four phases:
//
//  1. Discovering: an mDNS scan runs while a spinner is shown
//  2. Picking: the user selects one of the devices found
//  3. Connecting: the WebSocket session is being dialled
//  4. Panel: network list, WiFi credentials, device name and static IP inputs
//
// The first two phases are skipped when a device URL is given.
//
// # Rendering
//
// Frames from the device are dispatched on the session's reader goroutine.
// ProgramRenderer turns every render call into a message posted to the
// running program, so the model only changes inside Update. Panel actions run
// as commands for the same reason: they render synchronously, and
// Program.Send must not be called from Update.
//
// # Key Bindings
//
//   - tab / shift+tab: move between the network list and the inputs
//   - enter: copy the selected SSID, or submit the focused section
//   - ctrl+s: scan for WiFi networks
//   - ctrl+r: reboot the device
//   - esc: quit
//
// A field rejected by local validation is highlighted until it is edited.
package tui
