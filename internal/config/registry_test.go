package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "pductl"
	if !strings.Contains(configDir, "pductl") {
		t.Errorf("GetConfigDir() = %v, should contain 'pductl'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.ScanTimeout != 10 {
		t.Errorf("NewRegistry().Preferences.ScanTimeout = %v, want 10", reg.Preferences.ScanTimeout)
	}
}

func TestRegistrySetDevice(t *testing.T) {
	reg := NewRegistry()

	reg.SetDevice("rack3", &Device{Address: "192.168.1.163"})

	device := reg.GetDevice("rack3")
	if device == nil {
		t.Fatal("Device should exist after SetDevice()")
	}

	if device.Address != "192.168.1.163" {
		t.Errorf("Address = %v, want 192.168.1.163", device.Address)
	}

	// Missing port falls back to the firmware default
	if device.Port != DefaultWebPort {
		t.Errorf("Port = %v, want %v", device.Port, DefaultWebPort)
	}

	// First device becomes the default
	if reg.DefaultDevice != "rack3" {
		t.Errorf("DefaultDevice = %v, want rack3", reg.DefaultDevice)
	}

	// Adding a second device does not change the default
	reg.SetDevice("rack4", &Device{Address: "192.168.1.164", Port: 8080})
	if reg.DefaultDevice != "rack3" {
		t.Errorf("DefaultDevice changed to %v after second SetDevice()", reg.DefaultDevice)
	}

	if reg.GetDevice("rack4").Port != 8080 {
		t.Errorf("Port = %v, want 8080", reg.GetDevice("rack4").Port)
	}
}

func TestRegistryRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	reg.SetDevice("rack3", &Device{Address: "192.168.1.163"})
	reg.SetDevice("rack4", &Device{Address: "192.168.1.164"})

	reg.RemoveDevice("rack3")

	if reg.GetDevice("rack3") != nil {
		t.Error("Device should not exist after RemoveDevice()")
	}

	// Removing the default clears the selection
	if reg.DefaultDevice != "" {
		t.Errorf("DefaultDevice = %v, want empty after removing default", reg.DefaultDevice)
	}

	if reg.GetDevice("rack4") == nil {
		t.Error("Unrelated device should survive RemoveDevice()")
	}
}

func TestRegistryDefault(t *testing.T) {
	reg := NewRegistry()

	if reg.Default() != nil {
		t.Error("Default() should be nil for an empty registry")
	}

	reg.SetDevice("rack3", &Device{Address: "192.168.1.163"})

	device := reg.Default()
	if device == nil {
		t.Fatal("Default() returned nil after SetDevice()")
	}
	if device.Address != "192.168.1.163" {
		t.Errorf("Default().Address = %v, want 192.168.1.163", device.Address)
	}
}

func TestRegistryTouchDevice(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.TouchDevice("rack3", "192.168.1.163")
	after := time.Now()

	device := reg.GetDevice("rack3")
	if device == nil {
		t.Fatal("Device should exist after TouchDevice()")
	}

	if device.Address != "192.168.1.163" {
		t.Errorf("Address = %v, want 192.168.1.163", device.Address)
	}

	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}

	// A later touch updates the address without creating a new entry
	reg.TouchDevice("rack3", "192.168.1.200")
	if got := reg.GetDevice("rack3").Address; got != "192.168.1.200" {
		t.Errorf("Address after re-touch = %v, want 192.168.1.200", got)
	}
	if len(reg.Devices) != 1 {
		t.Errorf("len(Devices) = %v, want 1", len(reg.Devices))
	}
}

func TestRegistryYAMLRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.SetDevice("rack3", &Device{
		Address:      "192.168.1.163",
		Port:         80,
		SidebandPort: 5000,
		Username:     "admin",
	})

	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	var loaded Registry
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}

	if loaded.Version != 1 {
		t.Errorf("loaded Version = %v, want 1", loaded.Version)
	}

	device := loaded.GetDevice("rack3")
	if device == nil {
		t.Fatal("Device should exist in loaded registry")
	}

	if device.Address != "192.168.1.163" {
		t.Errorf("loaded Address = %v, want 192.168.1.163", device.Address)
	}
	if device.SidebandPort != 5000 {
		t.Errorf("loaded SidebandPort = %v, want 5000", device.SidebandPort)
	}
	if device.Username != "admin" {
		t.Errorf("loaded Username = %v, want admin", device.Username)
	}
	if loaded.DefaultDevice != "rack3" {
		t.Errorf("loaded DefaultDevice = %v, want rack3", loaded.DefaultDevice)
	}
}

func TestLoadRegistryUnsupportedVersion(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	switch runtime.GOOS {
	case "windows":
		t.Setenv("LOCALAPPDATA", tmpDir)
	case "darwin":
		t.Setenv("HOME", tmpDir)
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("version: 2\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := loadRegistryFromDisk(); err == nil {
		t.Error("loadRegistryFromDisk() should reject unsupported config versions")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	switch runtime.GOOS {
	case "windows":
		t.Setenv("LOCALAPPDATA", tmpDir)
	case "darwin":
		t.Setenv("HOME", tmpDir)
	}

	reg := NewRegistry()
	reg.SetDevice("lab", &Device{
		Address:  "10.0.0.42",
		Username: "admin",
	})

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() error = %v", err)
	}

	device := loaded.GetDevice("lab")
	if device == nil {
		t.Fatal("Device should exist in loaded registry")
	}
	if device.Address != "10.0.0.42" {
		t.Errorf("loaded Address = %v, want 10.0.0.42", device.Address)
	}
	if loaded.DefaultDevice != "lab" {
		t.Errorf("loaded DefaultDevice = %v, want lab", loaded.DefaultDevice)
	}
}

// Benchmark tests

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func BenchmarkSetDevice(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.SetDevice("rack3", &Device{Address: "192.168.1.163"})
	}
}
