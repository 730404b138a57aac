// Package config provides user configuration management for the pductl tools.
//
// This package manages a YAML-based registry of known PDUs so commands can
// address devices by name instead of IP address. It stores per-device
// coordinates (address, port, sideband port, username) and a default device
// selection. The file lives in the platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/pductl/config.yaml or $HOME/.config/pductl/config.yaml
//   - macOS: $HOME/.config/pductl/config.yaml
//   - Windows: %LOCALAPPDATA%\pductl\config.yaml
//
// # Security
//
// Device passwords are NEVER stored in the registry. They are prompted when
// needed or taken from the environment.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	device := registry.GetDevice("rack3")
//	if device == nil {
//	    log.Fatal("unknown device")
//	}
//	client := pdu.NewClient(device.Address, device.Port)
package config
