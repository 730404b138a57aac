package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/ipdu/pductl/internal/logging"
	"github.com/ipdu/pductl/pkg/pdu"
)

const (
	// ServiceType is the mDNS service type browsed for candidates.
	// The PDU firmware registers its web interface as a plain HTTP service.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultProbeTimeout bounds the status probe against each candidate
	DefaultProbeTimeout = 3 * time.Second

	// DefaultPort is the default HTTP port for the PDU web interface
	DefaultPort = 80
)

// Scanner handles mDNS device discovery.
//
// Browsing _http._tcp alone cannot tell a PDU from any other embedded web
// server, so every candidate is probed by fetching and decoding the status
// page. Only candidates that decode (or reject the probe with 401) are
// reported.
type Scanner struct {
	// Timeout is the maximum time to wait for mDNS responses
	Timeout time.Duration

	// ProbeTimeout bounds each per-candidate status probe
	ProbeTimeout time.Duration

	// Credentials are used for the status probe. Zero value probes with the
	// firmware's factory credentials; candidates that reject those come back
	// with AuthRequired set instead of Confirmed.
	Credentials pdu.Credentials
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout:      DefaultScanTimeout,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

// ScanForDevices discovers all PDUs on the local network
// Returns a list of discovered devices or an error
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers devices with a custom context
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	devices := make([]*Device, 0)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Probe candidates as they arrive; probes run concurrently so one slow
	// host does not consume the whole scan window
	go func() {
		for entry := range entries {
			candidate := parseServiceEntry(entry)
			if candidate == nil {
				continue
			}
			wg.Add(1)
			go func(candidate *Device) {
				defer wg.Done()
				if !s.probe(ctx, candidate) {
					return
				}
				mu.Lock()
				devices = append(devices, candidate)
				mu.Unlock()
			}(candidate)
		}
	}()

	// Start browsing for HTTP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the scan window to close, then for outstanding probes
	<-ctx.Done()
	wg.Wait()

	return devices, nil
}

// Probe checks whether a host serves the PDU web interface by fetching and
// decoding the status page. The device's Confirmed and AuthRequired fields
// are updated in place. Returns false when the host is not a PDU.
func (s *Scanner) Probe(ctx context.Context, device *Device) bool {
	return s.probe(ctx, device)
}

func (s *Scanner) probe(ctx context.Context, device *Device) bool {
	probeTimeout := s.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	// Detach from the scan window so probes started near its end still get
	// a full probe timeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
	defer cancel()

	client := pdu.NewClient(device.IP, device.Port)
	defer client.Close()
	if s.Credentials.Username != "" {
		client.SetAuth(s.Credentials.Username, s.Credentials.Password)
	}

	_, err := client.GetStatus(ctx)
	switch {
	case err == nil:
		device.Confirmed = true
		return true
	case pdu.IsAuth(err):
		// Basic auth challenge without credentials; still a candidate
		device.AuthRequired = true
		return true
	default:
		logging.Debug("discovery probe rejected candidate",
			zap.String("host", device.IP),
			zap.Int("port", device.Port),
			zap.Error(err),
		)
		return false
	}
}

// parseServiceEntry converts a zeroconf service entry to a candidate Device.
// Returns nil if the entry carries no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Get port (default to 80 if not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Device{
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForDevices is a convenience function to scan for devices with a custom timeout
func ScanForDevices(timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForDevices()
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan() ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.ScanForDevices()
}
