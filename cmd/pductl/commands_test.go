package main

import (
	"testing"

	"github.com/ipdu/pductl/internal/logging"
	"github.com/ipdu/pductl/pkg/pdu"
)

// resetFlags clears the persistent device flags between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	deviceFlag = ""
	devicePort = 0
	userFlag = ""
	passwordFlag = ""
	sidebandPort = 0
	t.Cleanup(func() {
		deviceFlag = ""
		devicePort = 0
		userFlag = ""
		passwordFlag = ""
		sidebandPort = 0
	})
}

func TestNewClientWiresGlobalLogger(t *testing.T) {
	if err := logging.Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tgt := &target{
		Host:        "192.168.1.163",
		Port:        80,
		Credentials: pdu.Credentials{Username: "admin", Password: "secret"},
	}

	client := tgt.newClient()
	defer client.Close()

	// Device requests must flow through the process-wide logger so
	// PDUCTL_LOG_LEVEL reaches the HTTP facade
	if client.Logger != logging.GetLogger() {
		t.Error("newClient() should attach the global logger to the client")
	}

	if got := client.Credentials(); got.Username != "admin" || got.Password != "secret" {
		t.Errorf("client credentials = %+v, want admin/secret", got)
	}
}

func TestResolveTargetByAddress(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(PasswordEnvVar, "")
	resetFlags(t)

	deviceFlag = "192.168.1.99"
	devicePort = 8080

	tgt, err := resolveTarget()
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}

	if tgt.Host != "192.168.1.99" {
		t.Errorf("Host = %v, want 192.168.1.99", tgt.Host)
	}
	if tgt.Port != 8080 {
		t.Errorf("Port = %v, want 8080", tgt.Port)
	}
	if tgt.Name != "" {
		t.Errorf("Name = %q, want empty for an unregistered address", tgt.Name)
	}

	// No flags, env, or registry entry: factory credentials
	if tgt.Credentials.Username != pdu.DefaultUsername {
		t.Errorf("Username = %v, want factory default", tgt.Credentials.Username)
	}
	if tgt.Credentials.Password != pdu.DefaultPassword {
		t.Errorf("Password = %v, want factory default", tgt.Credentials.Password)
	}
}

func TestResolveTargetPasswordFromEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(PasswordEnvVar, "from-env")
	resetFlags(t)

	deviceFlag = "192.168.1.99"

	tgt, err := resolveTarget()
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}
	if tgt.Credentials.Password != "from-env" {
		t.Errorf("Password = %v, want from-env", tgt.Credentials.Password)
	}

	// An explicit flag wins over the environment
	passwordFlag = "from-flag"
	tgt, err = resolveTarget()
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}
	if tgt.Credentials.Password != "from-flag" {
		t.Errorf("Password = %v, want from-flag", tgt.Credentials.Password)
	}
}

func TestSidebandAddrRequiresPort(t *testing.T) {
	tgt := &target{Host: "192.168.1.99"}

	if _, err := tgt.sidebandAddr(); err == nil {
		t.Error("sidebandAddr() should fail without a configured port")
	}

	tgt.SidebandPort = 5000
	addr, err := tgt.sidebandAddr()
	if err != nil {
		t.Fatalf("sidebandAddr() error = %v", err)
	}
	if addr != "192.168.1.99:5000" {
		t.Errorf("sidebandAddr() = %v, want 192.168.1.99:5000", addr)
	}
}
