package config

import "time"

// Registry represents the entire user configuration file: the set of known
// PDUs and application preferences.
type Registry struct {
	Version       int                `yaml:"version"`
	DefaultDevice string             `yaml:"default_device,omitempty"` // Name of the device used when none is given
	Devices       map[string]*Device `yaml:"devices,omitempty"`        // Keyed by user-chosen device name
	Preferences   *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents one known PDU.
type Device struct {
	Address      string    `yaml:"address"`                 // IP address or hostname
	Port         int       `yaml:"port,omitempty"`          // Web interface port (default 80)
	SidebandPort int       `yaml:"sideband_port,omitempty"` // UDP voltage-query port
	Username     string    `yaml:"username,omitempty"`      // Basic auth username
	LastSeen     time.Time `yaml:"last_seen,omitempty"`     // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	ScanTimeout int `yaml:"scan_timeout"` // mDNS discovery timeout in seconds
}

// DefaultWebPort is the firmware's web interface port.
const DefaultWebPort = 80

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			ScanTimeout: 10,
		},
	}
}

// GetDevice retrieves a device by name. Returns nil if the name is unknown.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// SetDevice adds or replaces a device entry. The first device added becomes
// the default.
func (r *Registry) SetDevice(name string, device *Device) {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if device.Port == 0 {
		device.Port = DefaultWebPort
	}
	r.Devices[name] = device
	if r.DefaultDevice == "" {
		r.DefaultDevice = name
	}
}

// RemoveDevice deletes a device entry, clearing the default selection if it
// pointed at the removed device.
func (r *Registry) RemoveDevice(name string) {
	delete(r.Devices, name)
	if r.DefaultDevice == name {
		r.DefaultDevice = ""
	}
}

// Default returns the default device entry, or nil when none is configured.
func (r *Registry) Default() *Device {
	if r.DefaultDevice == "" {
		return nil
	}
	return r.Devices[r.DefaultDevice]
}

// TouchDevice updates the last-seen timestamp for a device, creating the
// entry if needed.
func (r *Registry) TouchDevice(name, address string) {
	device := r.GetDevice(name)
	if device == nil {
		device = &Device{Address: address}
		r.SetDevice(name, device)
	}
	device.Address = address
	device.LastSeen = time.Now()
}
