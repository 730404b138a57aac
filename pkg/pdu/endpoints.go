package pdu

// Endpoint is a fixed path on the device's web server. The firmware exposes
// one page per concern; there is no routing beyond these.
type Endpoint string

const (
	// EndpointStatus serves the live status document (XML).
	EndpointStatus Endpoint = "/status.xml"
	// EndpointPDUInfo and EndpointSystemInfo are read-only informational
	// pages. They have no codec here but stay reachable through Fetch.
	EndpointPDUInfo    Endpoint = "/info_PDU.htm"
	EndpointSystemInfo Endpoint = "/info_system.htm"
	// EndpointOutletControl switches outlets via GET query parameters.
	EndpointOutletControl Endpoint = "/control_outlet.htm"
	// EndpointOutletConfig reads/writes per-outlet names and delays.
	EndpointOutletConfig Endpoint = "/config_PDU.htm"
	// EndpointThresholds reads/writes warning and overload limits.
	EndpointThresholds Endpoint = "/config_threshold.htm"
	// EndpointUsers changes the web interface credentials (POST only).
	EndpointUsers Endpoint = "/config_user.htm"
	// EndpointNetwork reads/writes the network configuration.
	EndpointNetwork Endpoint = "/config_network.htm"
)
