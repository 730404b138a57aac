package pdu

import (
	"fmt"
	"net/url"
	"strconv"
)

// Device form field codes. The firmware's form handlers key every value on
// these short identifiers; they are not documented anywhere and were lifted
// from the pages the device serves.
const (
	fieldWarningAmps     = "wrncur"
	fieldOverloadAmps    = "ovrcur"
	fieldWarningVolts    = "wrnvol"
	fieldOverloadVolts   = "ovrvol"
	fieldTempUnder       = "wrntp1"
	fieldTempOver        = "wrntp2"
	fieldWarningHumidity = "wrnhum"

	fieldHostname = "host"
	fieldIP       = "ip"
	fieldSubnet   = "mask"
	fieldGateway  = "gate"
	fieldDHCP     = "dhcp"
	fieldDNS1     = "dns1"
	fieldDNS2     = "dns2"

	// per-outlet prefixes; the outlet index is suffixed onto each
	fieldOutletName     = "otlt"
	fieldOutletOnDelay  = "ondly"
	fieldOutletOffDelay = "ofdly"

	fieldNewUsername     = "unnew"
	fieldNewPassword     = "pwnew"
	fieldConfirmPassword = "pwcfm"
)

// FormValues encodes the thresholds as the form fields config_threshold.htm
// expects.
func (c *ThresholdsConfig) FormValues() url.Values {
	data := url.Values{}
	data.Set(fieldWarningAmps, formatFloat(c.WarningAmps))
	data.Set(fieldOverloadAmps, formatFloat(c.OverloadAmps))
	data.Set(fieldWarningVolts, strconv.Itoa(c.WarningVolts))
	data.Set(fieldOverloadVolts, strconv.Itoa(c.OverloadVolts))
	data.Set(fieldTempUnder, strconv.Itoa(c.TempUnderCelsius))
	data.Set(fieldTempOver, strconv.Itoa(c.TempOverCelsius))
	data.Set(fieldWarningHumidity, strconv.Itoa(c.HumidityPercent))
	return data
}

// FormValues encodes the network settings as the form fields
// config_network.htm expects. The DHCP key is only present when the flag is
// set: the firmware treats absence as disabled and has no explicit false
// encoding.
func (c *NetworkConfig) FormValues() url.Values {
	data := url.Values{}
	data.Set(fieldHostname, c.Hostname)
	data.Set(fieldIP, c.IP)
	data.Set(fieldSubnet, c.Subnet)
	data.Set(fieldGateway, c.Gateway)
	data.Set(fieldDNS1, c.DNS1)
	data.Set(fieldDNS2, c.DNS2)
	if c.DHCP {
		data.Set(fieldDHCP, "on")
	}
	return data
}

// FormValues encodes the outlet bank as the form fields config_PDU.htm
// expects: three fields per outlet, with the outlet index suffixed onto each
// field-code prefix. The index assignment mirrors the positional decode, so
// a decoded config posts back to the same physical outlets.
func (c *AllOutletsConfig) FormValues() url.Values {
	data := url.Values{}
	for i, outlet := range c.Outlets {
		data.Set(fmt.Sprintf("%s%d", fieldOutletName, i), outlet.Name)
		data.Set(fmt.Sprintf("%s%d", fieldOutletOnDelay, i), strconv.Itoa(outlet.TurnOnDelay))
		data.Set(fmt.Sprintf("%s%d", fieldOutletOffDelay, i), strconv.Itoa(outlet.TurnOffDelay))
	}
	return data
}

// formValues encodes a credential change for config_user.htm. The form wants
// the new password twice; the old credentials ride along as basic auth on
// the POST itself.
func (c Credentials) formValues() url.Values {
	data := url.Values{}
	data.Set(fieldNewUsername, c.Username)
	data.Set(fieldNewPassword, c.Password)
	data.Set(fieldConfirmPassword, c.Password)
	return data
}

// formatFloat renders a float the way the device's own pages do: shortest
// representation that round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
