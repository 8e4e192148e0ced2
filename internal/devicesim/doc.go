// Package devicesim simulates the device side of the XSH WebSocket protocol.
//
// A Device answers each request the way the firmware does:
//
//   - scan_wifi_networks: status 2 (in progress), then status 1 with the list
//   - set_wifi_credentials: status true, then wifi_connected, wifi_auth_fail
//     or wifi_disconnected depending on the configured networks
//   - set_device_name: status true unless the name is empty
//   - set_wifi_advanced: status true when all three addresses are IPv4 literals
//   - reboot_device: wifi_disconnected, then the connection is closed
//
// Undecodable frames are logged and ignored. Every decoded request is kept so
// tests can inspect what a client actually sent:
//
//	dev := devicesim.New(devicesim.Config{})
//	srv := httptest.NewServer(dev)
//	defer srv.Close()
//	// ... drive a client against "ws" + strings.TrimPrefix(srv.URL, "http")
//	reqs := dev.Received()
package devicesim
