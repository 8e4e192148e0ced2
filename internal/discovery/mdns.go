package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/xshcfg/internal/logging"
)

const (
	// ServiceType is the mDNS service type XSH devices advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default HTTP port for XSH devices
	DefaultPort = 80

	// DefaultHostnamePattern matches hostnames like "xsh-a1b2c3.local."
	DefaultHostnamePattern = `(?i)^xsh[-_]?([0-9a-z]+)\.local\.?$`
)

var defaultPattern = regexp.MustCompile(DefaultHostnamePattern)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	// Service and Domain select what is browsed
	Service string
	Domain  string

	// pattern selects device hostnames; the first capture group is the ID
	pattern *regexp.Regexp
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Service: ServiceType,
		Domain:  ServiceDomain,
		pattern: defaultPattern,
	}
}

// SetHostnamePattern replaces the hostname filter. The first capture group,
// if any, becomes Device.ID.
func (s *Scanner) SetHostnamePattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid hostname pattern: %w", err)
	}
	s.pattern = re
	return nil
}

// Scan discovers all XSH devices on the local network until the timeout
// or ctx ends. Devices are de-duplicated by hostname.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		devices []*Device
		seen    = make(map[string]bool)
	)

	err := s.browse(ctx, func(d *Device) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[d.Hostname] {
			seen[d.Hostname] = true
			devices = append(devices, d)
			logging.Debug("mDNS device found",
				zap.String("hostname", d.Hostname),
				zap.String("ip", d.IP),
				zap.Int("port", d.Port),
			)
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	out := make([]*Device, len(devices))
	copy(out, devices)
	return out, nil
}

// Find waits for the device with the given ID
func (s *Scanner) Find(ctx context.Context, id string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Device, 1)
	err := s.browse(ctx, func(d *Device) bool {
		if !strings.EqualFold(d.ID, id) {
			return false
		}
		select {
		case found <- d:
		default:
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	select {
	case d := <-found:
		return d, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("device %s not found within %s", id, s.Timeout)
	}
}

// browse runs the resolver and hands each matching entry to fn until fn
// returns true or ctx ends
func (s *Scanner) browse(ctx context.Context, fn func(*Device) bool) error {
	ctx, cancel := context.WithCancel(ctx)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if device := s.parseServiceEntry(entry); device != nil && fn(device) {
					return
				}
			}
		}
	}()

	logging.Debug("Browsing mDNS",
		zap.String("service", s.Service),
		zap.String("domain", s.Domain),
		zap.Duration("timeout", s.Timeout),
	)

	if err := resolver.Browse(ctx, s.Service, s.Domain, entries); err != nil {
		cancel()
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry is not an XSH device
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	pattern := s.pattern
	if pattern == nil {
		pattern = defaultPattern
	}
	matches := pattern.FindStringSubmatch(hostname)
	if matches == nil {
		return nil
	}

	id := strings.TrimSuffix(strings.TrimSuffix(hostname, "."), ".local")
	if len(matches) > 1 && matches[1] != "" {
		id = matches[1]
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		ID:           id,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// QuickScan performs a scan with the given timeout and default settings
func QuickScan(ctx context.Context, timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}
