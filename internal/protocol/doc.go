// Package protocol implements the XSH device session protocol.
//
// The device and the client exchange UTF-8 JSON text frames over a single
// WebSocket connection. Every frame is one JSON object with a mandatory
// "event" string field; the remaining fields depend on the event.
//
// # Outbound Requests (client to device)
//
//	event                 fields
//	scan_wifi_networks    -
//	set_wifi_credentials  ssid, password
//	set_device_name       name
//	set_wifi_advanced     local_ip, gateway, subnet
//	reboot_device         -
//
// Requests are plain structs implementing Request and are serialized with
// Encode. SetWiFiAdvanced is the only validated request: build it with
// NewSetWiFiAdvanced, which refuses to construct a request unless all three
// fields are dotted-quad IPv4 literals.
//
// # Inbound Events (device to client)
//
//	event                 fields
//	scan_wifi_networks    status (0 idle, 1 results, 2 scanning), ssid[], rssi[]
//	set_wifi_advanced     status (bool)
//	set_device_name       status (bool)
//	set_wifi_credentials  status (bool)
//	wifi_connected        -
//	wifi_auth_fail        -
//	wifi_disconnected     -
//	dhcp_error            -
//
// DecodeEvent turns a frame into one of the Event implementations. Unknown
// tags decode to UnknownEvent and are ignored by the Dispatcher.
//
// # Usage Example
//
//	d := protocol.NewDispatcher(renderer)
//	for {
//	    _, frame, err := conn.ReadMessage()
//	    if err != nil {
//	        break
//	    }
//	    _ = d.Dispatch(frame) // malformed frames are logged and dropped
//	}
//
//	data, err := protocol.Encode(protocol.SetDeviceName{Name: "kitchen"})
//	if err != nil {
//	    return err
//	}
//	err = conn.WriteMessage(websocket.TextMessage, data)
//
// # Error Handling
//
// The package distinguishes between:
//   - MalformedPayload: an inbound frame that cannot be decoded (dropped)
//   - InvalidInput: a request field that failed validation (flagged to the user)
//   - DeviceReportedFailure: a set_* reply with status false (shown as a failure)
//
// Replies are matched to requests only by event tag. Two requests with the
// same tag in flight cannot be told apart.
package protocol
