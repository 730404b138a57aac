package discovery

import (
	"fmt"
	"time"
)

// Device represents a discovered PDU on the network
type Device struct {
	// Hostname is the mDNS hostname (e.g., "PDU-0815.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.163")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Confirmed reports whether the web interface answered a status probe.
	// Unconfirmed devices are plain _http._tcp services that could not be
	// verified, usually because the probe needed credentials.
	Confirmed bool

	// AuthRequired is set when the probe was rejected with 401, which still
	// strongly suggests a PDU web interface behind basic auth
	AuthRequired bool

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	state := "unconfirmed"
	if d.Confirmed {
		state = "confirmed"
	} else if d.AuthRequired {
		state = "auth required"
	}
	return fmt.Sprintf("PDU %s at %s:%d (%s)", d.Hostname, d.IP, d.Port, state)
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.IP, d.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
