// Package discovery provides mDNS-based discovery of XSH devices.
//
// XSH devices advertise an "_http._tcp" service in the "local." domain under
// hostnames such as "xsh-a1b2c3.local.". The Scanner browses for that service
// and keeps entries whose hostname matches its pattern.
//
// # Usage Example
//
//	devices, err := discovery.QuickScan(ctx, 5*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Println(d, d.WebSocketURL(""))
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// A device in access-point mode is usually reachable at a fixed address
// without discovery; use --device directly in that case.
package discovery
