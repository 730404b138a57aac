// Package pdu is a client for the web management interface of Intellinet
// 163682-class smart PDUs (eight switched outlets, current/temperature/
// humidity sensors).
//
// The firmware exposes no API, only a handful of fixed pages; this package
// scrapes those pages into typed records and re-encodes the records into the
// firmware's undocumented form-field naming scheme for writes. All decodes
// are all-or-nothing: a missing or malformed field fails the operation
// rather than producing a partial record.
//
// # Usage
//
//	client := pdu.NewClient("192.168.1.163", 80)
//	client.SetAuth("admin", "secret")
//	defer client.Close()
//
//	status, err := client.GetStatus(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("draw: %.1fA, outlet 3: %s\n", status.CurrentAmps, status.OutletStates[3])
//
//	// power-cycle outlets 2 and 5
//	err = client.SetOutlets(ctx, pdu.CommandCycle, 2, 5)
//
// # Thread safety
//
// Operations are independent round trips with no shared decode state, so a
// Client may be used concurrently. ChangeCredentials mutates the stored
// transport credentials and is serialized internally against all other
// requests.
//
// # Live voltage
//
// The firmware does not publish voltage over HTTP; see the sideband package
// for the datagram query channel that does.
package pdu
