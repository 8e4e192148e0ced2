package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/muurk/xshcfg/internal/discovery"
	"github.com/muurk/xshcfg/internal/logging"
)

// CurrentVersion is the only config file version understood
const CurrentVersion = 1

// Default values
const (
	DefaultPath            = "/ws"
	DefaultDialTimeout     = 10 * time.Second
	DefaultReplyTimeout    = 15 * time.Second
	DefaultDiscoverTimeout = discovery.DefaultScanTimeout
	DefaultService         = discovery.ServiceType
	DefaultDomain          = discovery.ServiceDomain
	DefaultHostnamePattern = discovery.DefaultHostnamePattern
	DefaultLogMaxSizeMB    = 10
	DefaultLogMaxBackups   = 3
	DefaultLogMaxAgeDays   = 28
)

// Config is the whole configuration file
type Config struct {
	Version   int             `yaml:"version"`
	Device    DeviceConfig    `yaml:"device" envPrefix:"XSH_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"XSH_LOG_"`
	Discovery DiscoveryConfig `yaml:"discovery" envPrefix:"XSH_DISCOVERY_"`
}

// DeviceConfig says where the device is and how long to wait for it
type DeviceConfig struct {
	Address      string        `yaml:"address,omitempty" env:"DEVICE"` // host or host:port
	Path         string        `yaml:"path" env:"WS_PATH"`
	URL          string        `yaml:"url,omitempty" env:"URL"` // overrides Address and Path
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
	ReplyTimeout time.Duration `yaml:"reply_timeout" env:"REPLY_TIMEOUT"`
}

// LoggingConfig controls log output. Empty Level means silent.
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" env:"LEVEL"`
	File       string `yaml:"file,omitempty" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
}

// DiscoveryConfig controls the mDNS device lookup
type DiscoveryConfig struct {
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Service         string        `yaml:"service" env:"SERVICE"`
	Domain          string        `yaml:"domain" env:"DOMAIN"`
	HostnamePattern string        `yaml:"hostname_pattern" env:"HOSTNAME_PATTERN"`
}

// Default returns a configuration with every default filled in
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Device: DeviceConfig{
			Path:         DefaultPath,
			DialTimeout:  DefaultDialTimeout,
			ReplyTimeout: DefaultReplyTimeout,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Discovery: DiscoveryConfig{
			Timeout:         DefaultDiscoverTimeout,
			Service:         DefaultService,
			Domain:          DefaultDomain,
			HostnamePattern: DefaultHostnamePattern,
		},
	}
}

// Validate checks values that would otherwise fail later and less clearly
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if c.Device.URL == "" && !strings.HasPrefix(c.Device.Path, "/") {
		return fmt.Errorf("device path must start with '/', got %q", c.Device.Path)
	}
	if c.Device.DialTimeout <= 0 {
		return fmt.Errorf("device dial_timeout must be positive")
	}
	if c.Device.ReplyTimeout <= 0 {
		return fmt.Errorf("device reply_timeout must be positive")
	}
	if c.Discovery.Timeout <= 0 {
		return fmt.Errorf("discovery timeout must be positive")
	}
	if _, err := regexp.Compile(c.Discovery.HostnamePattern); err != nil {
		return fmt.Errorf("invalid discovery hostname_pattern: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q (use debug, info, warn or error)", c.Logging.Level)
	}
	return nil
}

// WebSocketURL returns the device endpoint. URL wins when set; otherwise
// Address and Path are combined into ws://address/path.
func (d DeviceConfig) WebSocketURL() (string, error) {
	if d.URL != "" {
		if !strings.HasPrefix(d.URL, "ws://") && !strings.HasPrefix(d.URL, "wss://") {
			return "", fmt.Errorf("device URL must use ws:// or wss://, got %q", d.URL)
		}
		return d.URL, nil
	}
	if d.Address == "" {
		return "", fmt.Errorf("no device configured (use --device, --url or XSH_DEVICE)")
	}

	host := d.Address
	if h, p, err := net.SplitHostPort(d.Address); err == nil {
		host = net.JoinHostPort(h, p)
	} else if strings.Contains(d.Address, ":") && !strings.HasPrefix(d.Address, "[") {
		// bare IPv6 literal
		host = "[" + d.Address + "]"
	}

	path := d.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + host + path, nil
}

// Options converts the logging section for logging.InitializeWithOptions
func (l LoggingConfig) Options() logging.Options {
	return logging.Options{
		Level:      l.Level,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}

// Scanner builds an mDNS scanner from the discovery section
func (d DiscoveryConfig) Scanner() (*discovery.Scanner, error) {
	s := discovery.NewScanner()
	if d.Timeout > 0 {
		s.Timeout = d.Timeout
	}
	if d.Service != "" {
		s.Service = d.Service
	}
	if d.Domain != "" {
		s.Domain = d.Domain
	}
	if d.HostnamePattern != "" {
		if err := s.SetHostnamePattern(d.HostnamePattern); err != nil {
			return nil, err
		}
	}
	return s, nil
}
