// Package discovery provides mDNS-based discovery of PDUs on the local network.
//
// The PDU firmware registers its web interface as a plain "_http._tcp"
// service, which any embedded web server also does, so browsing alone cannot
// identify a PDU. Discovery therefore runs in two phases:
//  1. Browse "_http._tcp" services on the local network for candidates
//  2. Probe each candidate by fetching and decoding the status page
//
// Candidates whose status page decodes are reported as Confirmed. Candidates
// that reject the probe with a basic auth challenge are reported with
// AuthRequired set, since the firmware protects every page that way. All
// other candidates are dropped.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	devices, err := scanner.ScanForDevices()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, device := range devices {
//	    fmt.Printf("Found: %s\n", device)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
