package pdu

import "fmt"

// OutletCount is the number of switched outlets on the device. The firmware
// hardcodes eight everywhere; so does this package.
const OutletCount = 8

// OutletState is the on/off state of a single outlet as reported by
// status.xml.
type OutletState string

const (
	OutletOn  OutletState = "on"
	OutletOff OutletState = "off"
)

// OutletCommand is a switching command applied to a set of outlets through
// control_outlet.htm. The numeric values are the firmware's "op" codes.
type OutletCommand int

const (
	// CommandOn switches outlets on after their turn-on delay.
	CommandOn OutletCommand = 0
	// CommandOff switches outlets off after their turn-off delay.
	CommandOff OutletCommand = 1
	// CommandCycle switches outlets off and back on.
	CommandCycle OutletCommand = 2
)

// String returns the command name.
func (c OutletCommand) String() string {
	switch c {
	case CommandOn:
		return "on"
	case CommandOff:
		return "off"
	case CommandCycle:
		return "power-cycle"
	default:
		return fmt.Sprintf("OutletCommand(%d)", int(c))
	}
}

// UserVerifyResult is the credential-change verification marker embedded in
// status.xml. The firmware reports the outcome of the most recent
// config_user.htm POST there instead of in the POST response.
type UserVerifyResult int

const (
	// VerifyNotApplicable means no credential change is pending.
	VerifyNotApplicable UserVerifyResult = 0
	// VerifyCredentialsChanged means the device accepted the new credentials.
	VerifyCredentialsChanged UserVerifyResult = 1
	// VerifyCredentialsErrored means the device rejected the change.
	VerifyCredentialsErrored UserVerifyResult = 2
)

// String returns the verification result name.
func (r UserVerifyResult) String() string {
	switch r {
	case VerifyNotApplicable:
		return "not applicable"
	case VerifyCredentialsChanged:
		return "credentials changed"
	case VerifyCredentialsErrored:
		return "credentials errored"
	default:
		return fmt.Sprintf("UserVerifyResult(%d)", int(r))
	}
}

// Credentials is an HTTP basic auth username/password pair. It doubles as
// the payload of the explicit credential-change operation.
type Credentials struct {
	Username string
	Password string
}

// PDUStatus is the device health snapshot served by status.xml.
type PDUStatus struct {
	// CurrentAmps is the present total draw across the bank.
	CurrentAmps float64
	// TempCelsius is the ambient temperature at the device sensor.
	TempCelsius int
	// HumidityPercent is the relative humidity at the device sensor.
	HumidityPercent int
	// Status is the firmware's free-form state string ("normal" when no
	// threshold is breached).
	Status string
	// OutletStates holds the per-outlet switch state, indexed by physical
	// outlet number.
	OutletStates [OutletCount]OutletState
	// UserVerify reports the outcome of the most recent credential change.
	UserVerify UserVerifyResult
}

// IndividualOutletConfig is the configuration of one outlet on
// config_PDU.htm.
type IndividualOutletConfig struct {
	// Name is the display label shown in the web interface.
	Name string
	// TurnOnDelay is the delay in seconds before the outlet powers on.
	TurnOnDelay int
	// TurnOffDelay is the delay in seconds before the outlet powers off.
	TurnOffDelay int
}

// AllOutletsConfig is the configuration of the whole outlet bank, indexed by
// physical outlet number. Decode preserves the document order of the source
// page; that order is the outlet index.
type AllOutletsConfig struct {
	Outlets [OutletCount]IndividualOutletConfig
}

// ThresholdsConfig holds the warning and overload limits from
// config_threshold.htm.
type ThresholdsConfig struct {
	WarningAmps      float64
	OverloadAmps     float64
	WarningVolts     int
	OverloadVolts    int
	TempUnderCelsius int
	TempOverCelsius  int
	HumidityPercent  int
}

// NetworkConfig holds the device's network settings from config_network.htm.
// Addresses stay strings: the firmware round-trips them verbatim and decode
// must not normalize what the device will echo back.
type NetworkConfig struct {
	Hostname string
	IP       string
	Subnet   string
	Gateway  string
	DHCP     bool
	DNS1     string
	DNS2     string
}
