// Package sideband implements the PDU's datagram voltage-query channel.
//
// The firmware answers a single fixed binary command over UDP with the live
// input voltage, independent of the HTTP management interface. Frames carry
// a one-byte ones'-complement checksum trailer; replies that fail the
// length, magic-byte or checksum checks are rejected outright and never
// surfaced as data.
//
//	client, err := sideband.Dial("192.168.1.163:4003")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	volts, err := client.GetVoltage(ctx)
package sideband
