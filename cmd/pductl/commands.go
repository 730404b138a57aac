package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ipdu/pductl/internal/config"
	"github.com/ipdu/pductl/internal/discovery"
	"github.com/ipdu/pductl/internal/logging"
	"github.com/ipdu/pductl/internal/tui"
	"github.com/ipdu/pductl/pkg/pdu"
	"github.com/ipdu/pductl/pkg/sideband"
)

// PasswordEnvVar supplies the device password non-interactively, for
// scripting. The registry never stores passwords.
const PasswordEnvVar = "PDUCTL_PASSWORD"

// requestTimeout bounds every one-shot device operation
const requestTimeout = 15 * time.Second

// Command flags
var (
	deviceFlag   string
	devicePort   int
	userFlag     string
	passwordFlag string
	sidebandPort int
	outputFormat string
	scanTimeout  int
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "Device name from the registry, or an IP address")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 0, "Device HTTP port (default 80)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "username", "", "Basic auth username (default from registry, or factory)")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Basic auth password (prefer "+PasswordEnvVar+")")
	rootCmd.PersistentFlags().IntVar(&sidebandPort, "sideband-port", 0, "UDP voltage-query port")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(voltageCmd)
	rootCmd.AddCommand(outletCmd)
	rootCmd.AddCommand(outletsCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(deviceCmd)
}

// target is a fully resolved device address with credentials.
type target struct {
	Name         string // registry name, empty when addressed by IP
	Host         string
	Port         int
	SidebandPort int
	Credentials  pdu.Credentials
}

// resolveTarget turns the --device flag (or the registry default) into a
// concrete host, port and credentials. Flags override registry values.
func resolveTarget() (*target, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}

	t := &target{Port: config.DefaultWebPort}

	switch {
	case deviceFlag != "":
		if entry := registry.GetDevice(deviceFlag); entry != nil {
			t.Name = deviceFlag
			t.Host = entry.Address
			if entry.Port != 0 {
				t.Port = entry.Port
			}
			t.SidebandPort = entry.SidebandPort
			t.Credentials.Username = entry.Username
		} else {
			// Not a registered name; treat it as a host address
			t.Host = deviceFlag
		}
	case registry.DefaultDevice != "":
		entry := registry.Default()
		t.Name = registry.DefaultDevice
		t.Host = entry.Address
		if entry.Port != 0 {
			t.Port = entry.Port
		}
		t.SidebandPort = entry.SidebandPort
		t.Credentials.Username = entry.Username
	default:
		return nil, fmt.Errorf("no device specified: use --device, or register one with 'pductl device add'")
	}

	if devicePort != 0 {
		t.Port = devicePort
	}
	if sidebandPort != 0 {
		t.SidebandPort = sidebandPort
	}
	if userFlag != "" {
		t.Credentials.Username = userFlag
	}
	if t.Credentials.Username == "" {
		t.Credentials.Username = pdu.DefaultUsername
	}

	switch {
	case passwordFlag != "":
		t.Credentials.Password = passwordFlag
	case os.Getenv(PasswordEnvVar) != "":
		t.Credentials.Password = os.Getenv(PasswordEnvVar)
	default:
		t.Credentials.Password = pdu.DefaultPassword
	}

	return t, nil
}

func (t *target) newClient() *pdu.Client {
	client := pdu.NewClient(t.Host, t.Port)
	client.Logger = logging.GetLogger()
	client.SetAuth(t.Credentials.Username, t.Credentials.Password)
	return client
}

func (t *target) sidebandAddr() (string, error) {
	if t.SidebandPort == 0 {
		return "", fmt.Errorf("no sideband port configured: use --sideband-port or 'pductl device add'")
	}
	return fmt.Sprintf("%s:%d", t.Host, t.SidebandPort), nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// scanCmd discovers devices on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for PDUs on the network",
	Long: `Scan for PDUs using mDNS/DNS-SD discovery.

This command browses for HTTP services on the local network and probes each
candidate's status page to tell PDUs apart from other embedded web servers.
Candidates that answer with a basic auth challenge are listed too, since the
firmware protects every page that way.`,
	Example: `  # Scan for 10 seconds (default)
  pductl scan

  # Quick 3-second scan
  pductl scan --timeout 3

  # Probe candidates with non-factory credentials
  PDUCTL_PASSWORD=secret pductl scan --username admin`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for PDUs (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	if userFlag != "" {
		scanner.Credentials.Username = userFlag
		scanner.Credentials.Password = passwordFlag
		if scanner.Credentials.Password == "" {
			scanner.Credentials.Password = os.Getenv(PasswordEnvVar)
		}
	}

	devices, err := scanner.ScanForDevices()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the PDU is powered on and reachable")
		fmt.Println("  - Check that your computer is on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device flag to specify the IP manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))

	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Hostname)
		fmt.Printf("   IP:     %s:%d\n", device.IP, device.Port)
		if device.Confirmed {
			fmt.Printf("   Probe:  status page decoded\n")
		} else if device.AuthRequired {
			fmt.Printf("   Probe:  basic auth required\n")
		}
		fmt.Println()
	}

	fmt.Println("Use 'pductl device add <name> <ip>' to register a device")
	fmt.Println("Use 'pductl status --device <ip>' to view its readings")

	return nil
}

// statusCmd shows the live device readings
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device status",
	Long: `Display the live status of a PDU: total current draw, temperature,
humidity, and the on/off state of every outlet.`,
	Example: `  # Status of the default registered device
  pductl status

  # Status of a specific device
  pductl status --device 192.168.1.163

  # JSON output for scripting
  pductl status --device rack3 --format json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	status, err := client.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(status)
	}

	fmt.Printf("Device %s:%d\n\n", t.Host, t.Port)
	fmt.Printf("  Status:      %s\n", status.Status)
	fmt.Printf("  Current:     %.1f A\n", status.CurrentAmps)
	fmt.Printf("  Temperature: %d °C\n", status.TempCelsius)
	fmt.Printf("  Humidity:    %d %%\n", status.HumidityPercent)
	fmt.Println()
	for i, state := range status.OutletStates {
		fmt.Printf("  Outlet %d: %s\n", i+1, state)
	}

	return nil
}

// voltageCmd reads the mains voltage over the UDP sideband
var voltageCmd = &cobra.Command{
	Use:   "voltage",
	Short: "Read the mains voltage over the UDP sideband",
	Long: `Read the mains voltage from the device's UDP sideband.

The web interface does not expose the voltage reading; the firmware answers
a fixed binary query on a separate UDP port instead. That port must be given
with --sideband-port or stored in the registry entry.`,
	Example: `  # Voltage of a registered device with a stored sideband port
  pductl voltage --device rack3

  # Voltage of an explicit address
  pductl voltage --device 192.168.1.163 --sideband-port 5000`,
	RunE: runVoltage,
}

func runVoltage(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	addr, err := t.sidebandAddr()
	if err != nil {
		return err
	}

	ctx, cancel := opContext()
	defer cancel()

	client, err := sideband.DialConfig(addr, sideband.Config{Logger: logging.GetLogger()})
	if err != nil {
		return err
	}
	defer client.Close()

	volts, err := client.GetVoltage(ctx)
	if err != nil {
		return fmt.Errorf("voltage query failed: %w", err)
	}
	if outputFormat == "json" {
		return printJSON(map[string]int{"voltage": volts})
	}
	fmt.Printf("%d V\n", volts)
	return nil
}

// outletCmd switches outlets on, off, or through a power cycle
var outletCmd = &cobra.Command{
	Use:   "outlet <on|off|cycle> <outlet> [outlet...]",
	Short: "Switch outlets on, off, or power-cycle them",
	Long: `Apply a switching command to one or more outlets (numbered 1-8).

The firmware applies the configured per-outlet turn-on/turn-off delays and
does not confirm the switch in its response, so the resulting outlet states
are re-read and shown afterwards.`,
	Example: `  # Turn outlet 3 on
  pductl outlet on 3

  # Power-cycle outlets 1 and 2 on a specific device
  pductl outlet cycle 1 2 --device 192.168.1.163`,
	Args: cobra.MinimumNArgs(2),
	RunE: runOutlet,
}

func runOutlet(cmd *cobra.Command, args []string) error {
	var command pdu.OutletCommand
	switch args[0] {
	case "on":
		command = pdu.CommandOn
	case "off":
		command = pdu.CommandOff
	case "cycle":
		command = pdu.CommandCycle
	default:
		return fmt.Errorf("unknown command %q (use on, off, or cycle)", args[0])
	}

	outlets := make([]int, 0, len(args)-1)
	for _, arg := range args[1:] {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > pdu.OutletCount {
			return fmt.Errorf("invalid outlet %q (use 1-%d)", arg, pdu.OutletCount)
		}
		outlets = append(outlets, n-1)
	}

	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	fmt.Printf("Applying %s to outlet(s) %s...\n", command, strings.Join(args[1:], ", "))
	if err := client.SetOutlets(ctx, command, outlets...); err != nil {
		return fmt.Errorf("switch failed: %w", err)
	}

	// The control endpoint reports nothing; re-read the status so the user
	// sees where the outlets ended up
	status, err := client.GetStatus(ctx)
	if err != nil {
		fmt.Println("✓ Command sent (state re-read failed)")
		return nil
	}
	fmt.Println("✓ Command sent")
	for _, idx := range outlets {
		fmt.Printf("  Outlet %d: %s\n", idx+1, status.OutletStates[idx])
	}

	return nil
}

// outletsCmd manages the per-outlet configuration (names and delays)
var outletsCmd = &cobra.Command{
	Use:   "outlets",
	Short: "Show or change the outlet bank configuration",
}

var outletsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show outlet names and switching delays",
	RunE:  runOutletsShow,
}

var (
	outletName     string
	outletOnDelay  int
	outletOffDelay int
)

var outletsSetCmd = &cobra.Command{
	Use:   "set <outlet>",
	Short: "Change one outlet's name or switching delays",
	Long: `Change the display name, turn-on delay, or turn-off delay of one outlet.

The firmware only accepts the whole bank at once, so the current
configuration is read first and the selected outlet's row replaced before
writing everything back.`,
	Example: `  # Rename outlet 3
  pductl outlets set 3 --name "db server"

  # Give outlet 1 a 5 second turn-on delay
  pductl outlets set 1 --on-delay 5`,
	Args: cobra.ExactArgs(1),
	RunE: runOutletsSet,
}

func init() {
	outletsCmd.AddCommand(outletsShowCmd)
	outletsCmd.AddCommand(outletsSetCmd)

	outletsSetCmd.Flags().StringVar(&outletName, "name", "", "Display name")
	outletsSetCmd.Flags().IntVar(&outletOnDelay, "on-delay", -1, "Turn-on delay in seconds")
	outletsSetCmd.Flags().IntVar(&outletOffDelay, "off-delay", -1, "Turn-off delay in seconds")
}

func runOutletsShow(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	cfg, err := client.GetOutletsConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get outlet configuration: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(cfg)
	}

	for i, outlet := range cfg.Outlets {
		fmt.Printf("Outlet %d: %q (on delay %ds, off delay %ds)\n",
			i+1, outlet.Name, outlet.TurnOnDelay, outlet.TurnOffDelay)
	}
	return nil
}

func runOutletsSet(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > pdu.OutletCount {
		return fmt.Errorf("invalid outlet %q (use 1-%d)", args[0], pdu.OutletCount)
	}
	idx := n - 1

	if !cmd.Flags().Changed("name") && outletOnDelay < 0 && outletOffDelay < 0 {
		return fmt.Errorf("nothing to change: pass --name, --on-delay, or --off-delay")
	}

	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	cfg, err := client.GetOutletsConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get outlet configuration: %w", err)
	}

	if cmd.Flags().Changed("name") {
		cfg.Outlets[idx].Name = outletName
	}
	if outletOnDelay >= 0 {
		cfg.Outlets[idx].TurnOnDelay = outletOnDelay
	}
	if outletOffDelay >= 0 {
		cfg.Outlets[idx].TurnOffDelay = outletOffDelay
	}

	if err := client.SetOutletsConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to write outlet configuration: %w", err)
	}

	fmt.Printf("✓ Outlet %d updated: %q (on delay %ds, off delay %ds)\n",
		n, cfg.Outlets[idx].Name, cfg.Outlets[idx].TurnOnDelay, cfg.Outlets[idx].TurnOffDelay)
	return nil
}

// thresholdsCmd manages the warning/overload thresholds
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or change the warning and overload thresholds",
}

var thresholdsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured thresholds",
	RunE:  runThresholdsShow,
}

var (
	warningAmps   float64
	overloadAmps  float64
	warningVolts  int
	overloadVolts int
	tempUnder     int
	tempOver      int
	humidityWarn  int
)

var thresholdsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more thresholds",
	Long: `Change warning and overload thresholds.

Only the thresholds passed as flags are changed; the rest keep their current
values. The firmware only accepts the full set at once, so the current
configuration is read first.`,
	Example: `  # Warn at 10 A, trip at 16 A
  pductl thresholds set --warning-amps 10 --overload-amps 16

  # Raise the high temperature warning
  pductl thresholds set --temp-over 45`,
	RunE: runThresholdsSet,
}

func init() {
	thresholdsCmd.AddCommand(thresholdsShowCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)

	thresholdsSetCmd.Flags().Float64Var(&warningAmps, "warning-amps", 0, "Current warning threshold (A)")
	thresholdsSetCmd.Flags().Float64Var(&overloadAmps, "overload-amps", 0, "Current overload threshold (A)")
	thresholdsSetCmd.Flags().IntVar(&warningVolts, "warning-volts", 0, "Voltage warning threshold (V)")
	thresholdsSetCmd.Flags().IntVar(&overloadVolts, "overload-volts", 0, "Voltage overload threshold (V)")
	thresholdsSetCmd.Flags().IntVar(&tempUnder, "temp-under", 0, "Low temperature warning (°C)")
	thresholdsSetCmd.Flags().IntVar(&tempOver, "temp-over", 0, "High temperature warning (°C)")
	thresholdsSetCmd.Flags().IntVar(&humidityWarn, "humidity", 0, "Humidity warning threshold (%)")
}

func runThresholdsShow(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	cfg, err := client.GetThresholdsConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get thresholds: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(cfg)
	}

	fmt.Printf("Current:      warn %.1f A, overload %.1f A\n", cfg.WarningAmps, cfg.OverloadAmps)
	fmt.Printf("Voltage:      warn %d V, overload %d V\n", cfg.WarningVolts, cfg.OverloadVolts)
	fmt.Printf("Temperature:  under %d °C, over %d °C\n", cfg.TempUnderCelsius, cfg.TempOverCelsius)
	fmt.Printf("Humidity:     warn %d %%\n", cfg.HumidityPercent)
	return nil
}

func runThresholdsSet(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	cfg, err := client.GetThresholdsConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get thresholds: %w", err)
	}

	changed := false
	if cmd.Flags().Changed("warning-amps") {
		cfg.WarningAmps = warningAmps
		changed = true
	}
	if cmd.Flags().Changed("overload-amps") {
		cfg.OverloadAmps = overloadAmps
		changed = true
	}
	if cmd.Flags().Changed("warning-volts") {
		cfg.WarningVolts = warningVolts
		changed = true
	}
	if cmd.Flags().Changed("overload-volts") {
		cfg.OverloadVolts = overloadVolts
		changed = true
	}
	if cmd.Flags().Changed("temp-under") {
		cfg.TempUnderCelsius = tempUnder
		changed = true
	}
	if cmd.Flags().Changed("temp-over") {
		cfg.TempOverCelsius = tempOver
		changed = true
	}
	if cmd.Flags().Changed("humidity") {
		cfg.HumidityPercent = humidityWarn
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to change: pass at least one threshold flag")
	}

	if err := client.SetThresholdsConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to write thresholds: %w", err)
	}

	fmt.Println("✓ Thresholds updated")
	return nil
}

// networkCmd manages the device network configuration
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show or change the device network configuration",
}

var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the device network configuration",
	RunE:  runNetworkShow,
}

var (
	netHostname string
	netIP       string
	netSubnet   string
	netGateway  string
	netDNS1     string
	netDNS2     string
	netDHCP     bool
)

var networkSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the device network configuration",
	Long: `Change the device's network settings.

Only the settings passed as flags are changed. Changing the IP address takes
effect immediately on the device side, after which this command's own
connection is lost; that is expected.`,
	Example: `  # Move the device to a static address
  pductl network set --dhcp=false --ip 192.168.1.200 --gateway 192.168.1.1

  # Rename the device
  pductl network set --hostname pdu-rack3`,
	RunE: runNetworkSet,
}

func init() {
	networkCmd.AddCommand(networkShowCmd)
	networkCmd.AddCommand(networkSetCmd)

	networkSetCmd.Flags().StringVar(&netHostname, "hostname", "", "Device hostname")
	networkSetCmd.Flags().StringVar(&netIP, "ip", "", "Static IP address")
	networkSetCmd.Flags().StringVar(&netSubnet, "subnet", "", "Subnet mask")
	networkSetCmd.Flags().StringVar(&netGateway, "gateway", "", "Default gateway")
	networkSetCmd.Flags().StringVar(&netDNS1, "dns1", "", "Primary DNS server")
	networkSetCmd.Flags().StringVar(&netDNS2, "dns2", "", "Secondary DNS server")
	networkSetCmd.Flags().BoolVar(&netDHCP, "dhcp", false, "Enable DHCP")
}

func runNetworkShow(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	cfg, err := client.GetNetworkConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get network configuration: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(cfg)
	}

	fmt.Printf("Hostname: %s\n", cfg.Hostname)
	fmt.Printf("DHCP:     %v\n", cfg.DHCP)
	fmt.Printf("IP:       %s\n", cfg.IP)
	fmt.Printf("Subnet:   %s\n", cfg.Subnet)
	fmt.Printf("Gateway:  %s\n", cfg.Gateway)
	fmt.Printf("DNS:      %s, %s\n", cfg.DNS1, cfg.DNS2)
	return nil
}

func runNetworkSet(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	cfg, err := client.GetNetworkConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get network configuration: %w", err)
	}

	changed := false
	set := func(flag string, dst *string, value string) {
		if cmd.Flags().Changed(flag) {
			*dst = value
			changed = true
		}
	}
	set("hostname", &cfg.Hostname, netHostname)
	set("ip", &cfg.IP, netIP)
	set("subnet", &cfg.Subnet, netSubnet)
	set("gateway", &cfg.Gateway, netGateway)
	set("dns1", &cfg.DNS1, netDNS1)
	set("dns2", &cfg.DNS2, netDNS2)
	if cmd.Flags().Changed("dhcp") {
		cfg.DHCP = netDHCP
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to change: pass at least one network flag")
	}

	if err := client.SetNetworkConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to write network configuration: %w", err)
	}

	fmt.Println("✓ Network configuration updated")
	fmt.Println("  The device may now be reachable under a different address.")
	return nil
}

// passwdCmd rotates the device credentials
var passwdCmd = &cobra.Command{
	Use:   "passwd [new-username]",
	Short: "Change the device credentials",
	Long: `Change the device's web interface credentials.

The new password is prompted twice and never echoed. The device confirms the
change through its status document; only then are the new credentials used
for subsequent requests. Without a new-username argument the current
username is kept.`,
	Example: `  # Change the password, keep the username
  pductl passwd

  # Change username and password together
  pductl passwd operator --device rack3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPasswd,
}

func runPasswd(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}

	newUsername := t.Credentials.Username
	if len(args) == 1 {
		newUsername = args[0]
	}

	newPassword, err := promptPassword(fmt.Sprintf("New password for %s: ", newUsername))
	if err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("empty password not allowed")
	}
	confirm, err := promptPassword("Retype new password: ")
	if err != nil {
		return err
	}
	if newPassword != confirm {
		return fmt.Errorf("passwords do not match")
	}

	client := t.newClient()
	defer client.Close()

	ctx, cancel := opContext()
	defer cancel()

	next := pdu.Credentials{Username: newUsername, Password: newPassword}
	if err := client.ChangeCredentials(ctx, next); err != nil {
		return fmt.Errorf("credential change failed: %w", err)
	}

	fmt.Println("✓ Credentials changed and verified")

	// Keep the registry's username current for named devices
	if t.Name != "" {
		registry, err := config.LoadRegistry()
		if err == nil {
			if entry := registry.GetDevice(t.Name); entry != nil && entry.Username != newUsername {
				entry.Username = newUsername
				if err := registry.Save(); err != nil {
					fmt.Printf("warning: could not update registry: %v\n", err)
				}
			}
		}
	}

	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// dashboardCmd launches the interactive TUI dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive dashboard",
	Long: `Launch an interactive dashboard that polls the device and renders its
readings and outlet states live. Outlets can be switched directly from the
dashboard.

When the device has a sideband port configured, the mains voltage is shown
as well.`,
	Example: `  # Dashboard for the default registered device
  pductl dashboard
  # Or simply (dashboard is default):
  pductl

  # Dashboard for a specific device
  pductl dashboard --device 192.168.1.163`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client := t.newClient()
	defer client.Close()

	// Verify we can reach the device before taking over the terminal
	ctx, cancel := opContext()
	if _, err := client.GetStatus(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to connect to device at %s:%d: %w", t.Host, t.Port, err)
	}
	cancel()

	var sb *sideband.Client
	if t.SidebandPort != 0 {
		addr, _ := t.sidebandAddr()
		sb, err = sideband.DialConfig(addr, sideband.Config{Logger: logging.GetLogger()})
		if err != nil {
			fmt.Printf("warning: sideband unavailable: %v\n", err)
			sb = nil
		} else {
			defer sb.Close()
		}
	}

	label := fmt.Sprintf("%s:%d", t.Host, t.Port)
	if t.Name != "" {
		label = fmt.Sprintf("%s (%s)", t.Name, label)
	}
	return tui.Run(client, sb, label)
}

// deviceCmd manages the local device registry
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage the local device registry",
	Long: `Manage the registry of known PDUs.

Registered devices can be addressed by name with --device, and the default
device is used when --device is omitted. Passwords are never stored.`,
}

var (
	addPort         int
	addSidebandPort int
	addUsername     string
)

var deviceAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Register a device",
	Example: `  # Register a device with a sideband port and make commands terse
  pductl device add rack3 192.168.1.163 --sideband-port 5000
  pductl status --device rack3`,
	Args: cobra.ExactArgs(2),
	RunE: runDeviceAdd,
}

var deviceRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a registered device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceRemove,
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	RunE:  runDeviceList,
}

var deviceDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Select the default device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceDefault,
}

func init() {
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceRemoveCmd)
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceDefaultCmd)

	deviceAddCmd.Flags().IntVar(&addPort, "port", config.DefaultWebPort, "Web interface port")
	deviceAddCmd.Flags().IntVar(&addSidebandPort, "sideband-port", 0, "UDP voltage-query port")
	deviceAddCmd.Flags().StringVar(&addUsername, "username", "", "Basic auth username")
}

func runDeviceAdd(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	name, address := args[0], args[1]
	registry.SetDevice(name, &config.Device{
		Address:      address,
		Port:         addPort,
		SidebandPort: addSidebandPort,
		Username:     addUsername,
	})

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	fmt.Printf("✓ Registered %s at %s:%d\n", name, address, addPort)
	if registry.DefaultDevice == name {
		fmt.Println("  (now the default device)")
	}
	return nil
}

func runDeviceRemove(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	name := args[0]
	if registry.GetDevice(name) == nil {
		return fmt.Errorf("unknown device %q", name)
	}
	registry.RemoveDevice(name)

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	fmt.Printf("✓ Removed %s\n", name)
	return nil
}

func runDeviceList(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	if len(registry.Devices) == 0 {
		fmt.Println("No registered devices. Use 'pductl device add <name> <address>'.")
		return nil
	}

	if outputFormat == "json" {
		return printJSON(registry.Devices)
	}

	for name, device := range registry.Devices {
		marker := " "
		if name == registry.DefaultDevice {
			marker = "*"
		}
		fmt.Printf("%s %s: %s:%d", marker, name, device.Address, device.Port)
		if device.SidebandPort != 0 {
			fmt.Printf(" (sideband %d)", device.SidebandPort)
		}
		if device.Username != "" {
			fmt.Printf(" user %s", device.Username)
		}
		fmt.Println()
	}
	return nil
}

func runDeviceDefault(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	name := args[0]
	if registry.GetDevice(name) == nil {
		return fmt.Errorf("unknown device %q", name)
	}
	registry.DefaultDevice = name

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	fmt.Printf("✓ Default device is now %s\n", name)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
