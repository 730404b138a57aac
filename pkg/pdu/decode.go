package pdu

import (
	"fmt"
	"strconv"

	"github.com/ipdu/pductl/pkg/markup"
)

// Decoding is all-or-nothing: a missing or uncoercible field fails the whole
// record. The firmware has no notion of partial pages, so a partial record
// would mean the decode matched the wrong markup.

// DecodeStatus decodes a status.xml document into a PDUStatus.
func DecodeStatus(root *markup.Node) (*PDUStatus, error) {
	s := &PDUStatus{}

	cur, err := childFloat(root, "cur0")
	if err != nil {
		return nil, err
	}
	s.CurrentAmps = cur

	if s.TempCelsius, err = childInt(root, "tempCBan"); err != nil {
		return nil, err
	}
	if s.HumidityPercent, err = childInt(root, "humBan"); err != nil {
		return nil, err
	}
	if s.Status, err = childText(root, "stat0"); err != nil {
		return nil, err
	}

	for i := 0; i < OutletCount; i++ {
		field := fmt.Sprintf("outletStat%d", i)
		raw, err := childText(root, field)
		if err != nil {
			return nil, err
		}
		switch OutletState(raw) {
		case OutletOn, OutletOff:
			s.OutletStates[i] = OutletState(raw)
		default:
			return nil, NewFieldError(field, fmt.Errorf("outlet state %q", raw))
		}
	}

	verify, err := childInt(root, "userVerifyRes")
	if err != nil {
		return nil, err
	}
	s.UserVerify = UserVerifyResult(verify)

	return s, nil
}

// DecodeThresholds decodes a config_threshold.htm page into a
// ThresholdsConfig.
func DecodeThresholds(root *markup.Node) (*ThresholdsConfig, error) {
	c := &ThresholdsConfig{}
	var err error

	if c.WarningAmps, err = inputFloat(root, fieldWarningAmps); err != nil {
		return nil, err
	}
	if c.OverloadAmps, err = inputFloat(root, fieldOverloadAmps); err != nil {
		return nil, err
	}
	if c.WarningVolts, err = inputInt(root, fieldWarningVolts); err != nil {
		return nil, err
	}
	if c.OverloadVolts, err = inputInt(root, fieldOverloadVolts); err != nil {
		return nil, err
	}
	if c.TempUnderCelsius, err = inputInt(root, fieldTempUnder); err != nil {
		return nil, err
	}
	if c.TempOverCelsius, err = inputInt(root, fieldTempOver); err != nil {
		return nil, err
	}
	if c.HumidityPercent, err = inputInt(root, fieldWarningHumidity); err != nil {
		return nil, err
	}

	return c, nil
}

// DecodeNetworkConfig decodes a config_network.htm page into a NetworkConfig.
// The DHCP flag is carried by attribute presence, not value: the firmware
// renders the checkbox with a bare "checked" marker when DHCP is enabled.
func DecodeNetworkConfig(root *markup.Node) (*NetworkConfig, error) {
	c := &NetworkConfig{}
	var err error

	if c.Hostname, err = inputValue(root, fieldHostname); err != nil {
		return nil, err
	}
	if c.IP, err = inputValue(root, fieldIP); err != nil {
		return nil, err
	}
	if c.Subnet, err = inputValue(root, fieldSubnet); err != nil {
		return nil, err
	}
	if c.Gateway, err = inputValue(root, fieldGateway); err != nil {
		return nil, err
	}
	if c.DNS1, err = inputValue(root, fieldDNS1); err != nil {
		return nil, err
	}
	if c.DNS2, err = inputValue(root, fieldDNS2); err != nil {
		return nil, err
	}

	dhcp := root.Find(fieldDHCP)
	if dhcp == nil {
		return nil, NewNotFoundError(fieldDHCP, nil)
	}
	_, c.DHCP = dhcp.Attr("checked")

	return c, nil
}

// DecodeOutletsConfig decodes a config_PDU.htm page into an AllOutletsConfig.
//
// This page has no stable per-field identifiers, so the decode is positional:
// every table row holding input values contributes one outlet, and the row's
// ordinal position in the document is the outlet index. The first three
// values per row are name, turn-on delay and turn-off delay.
func DecodeOutletsConfig(root *markup.Node) (*AllOutletsConfig, error) {
	rows := markup.InputRows(root)
	if len(rows) != OutletCount {
		return nil, NewMalformedError(
			fmt.Sprintf("expected %d outlet rows, found %d", OutletCount, len(rows)), nil)
	}

	c := &AllOutletsConfig{}
	for i, row := range rows {
		if len(row) < 3 {
			return nil, NewMalformedError(
				fmt.Sprintf("outlet row %d has %d input values, need 3", i, len(row)), nil)
		}
		on, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, NewFieldError(fmt.Sprintf("%s%d", fieldOutletOnDelay, i), err)
		}
		off, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, NewFieldError(fmt.Sprintf("%s%d", fieldOutletOffDelay, i), err)
		}
		c.Outlets[i] = IndividualOutletConfig{
			Name:         row[0],
			TurnOnDelay:  on,
			TurnOffDelay: off,
		}
	}
	return c, nil
}

func childText(root *markup.Node, name string) (string, error) {
	t, err := markup.ChildText(root, name)
	if err != nil {
		return "", wrapDecodeErr(err)
	}
	return t, nil
}

func childInt(root *markup.Node, name string) (int, error) {
	t, err := childText(root, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, NewFieldError(name, err)
	}
	return v, nil
}

func childFloat(root *markup.Node, name string) (float64, error) {
	t, err := childText(root, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, NewFieldError(name, err)
	}
	return v, nil
}

func inputValue(root *markup.Node, id string) (string, error) {
	v, err := markup.FindValue(root, id)
	if err != nil {
		return "", wrapDecodeErr(err)
	}
	return v, nil
}

func inputInt(root *markup.Node, id string) (int, error) {
	v, err := inputValue(root, id)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewFieldError(id, err)
	}
	return n, nil
}

func inputFloat(root *markup.Node, id string) (float64, error) {
	v, err := inputValue(root, id)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, NewFieldError(id, err)
	}
	return f, nil
}
