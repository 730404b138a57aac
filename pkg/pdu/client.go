package pdu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ipdu/pductl/pkg/markup"
)

const (
	// DefaultUsername is the factory HTTP Basic Auth username.
	DefaultUsername = "admin"

	// DefaultPassword is the factory HTTP Basic Auth password.
	DefaultPassword = "admin"

	// DefaultTimeout is the HTTP request timeout for an owned http.Client.
	DefaultTimeout = 10 * time.Second

	// submitValue is the literal the firmware's outlet form handler requires
	// before it accepts a control request. The stock firmware ships with a
	// German web interface.
	submitValue = "Anwenden"
)

// Client talks to one PDU's web management interface. Every operation is an
// independent request/response round trip against a fixed endpoint; the
// client holds no decode state, so concurrent operations on one Client are
// safe. ChangeCredentials is the exception and is serialized internally
// against all other requests.
//
// There is no retry policy anywhere in this client: the firmware's
// idempotency under repeated writes is not guaranteed, so retrying is the
// caller's decision.
type Client struct {
	// BaseURL is the device base URL (e.g. "http://192.168.1.163").
	BaseURL string

	// HTTPClient is the underlying HTTP client. Replace it to inject a
	// caller-owned transport; Close only tears down the default one.
	HTTPClient *http.Client

	// Logger receives request-level debug output. Defaults to a nop logger.
	Logger *zap.Logger

	ownsHTTPClient bool

	credMu sync.RWMutex
	creds  Credentials
}

// NewClient creates a client for a device at the given host and port, using
// the factory credentials.
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client for a full base URL, using the factory
// credentials.
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		HTTPClient:     &http.Client{Timeout: DefaultTimeout},
		Logger:         zap.NewNop(),
		ownsHTTPClient: true,
		creds:          Credentials{Username: DefaultUsername, Password: DefaultPassword},
	}
}

// SetAuth replaces the credentials used for all subsequent requests.
func (c *Client) SetAuth(username, password string) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	c.creds = Credentials{Username: username, Password: password}
}

// Credentials returns the credentials currently in use.
func (c *Client) Credentials() Credentials {
	c.credMu.RLock()
	defer c.credMu.RUnlock()
	return c.creds
}

// SetHTTPClient injects a caller-owned HTTP client. The caller keeps
// responsibility for its lifecycle; Close becomes a no-op.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.HTTPClient = hc
	c.ownsHTTPClient = false
}

// Close releases the owned transport's idle connections. It does nothing
// when the HTTP client was injected.
func (c *Client) Close() {
	if c.ownsHTTPClient {
		c.HTTPClient.CloseIdleConnections()
	}
}

// GetStatus reads and decodes the device status.
func (c *Client) GetStatus(ctx context.Context) (*PDUStatus, error) {
	return c.getStatus(ctx, c.Credentials())
}

func (c *Client) getStatus(ctx context.Context, creds Credentials) (*PDUStatus, error) {
	root, err := c.fetch(ctx, EndpointStatus, nil, creds)
	if err != nil {
		return nil, err
	}
	return DecodeStatus(root)
}

// GetOutletsConfig reads and decodes the outlet bank configuration.
func (c *Client) GetOutletsConfig(ctx context.Context) (*AllOutletsConfig, error) {
	root, err := c.fetch(ctx, EndpointOutletConfig, nil, c.Credentials())
	if err != nil {
		return nil, err
	}
	return DecodeOutletsConfig(root)
}

// SetOutletsConfig writes the outlet bank configuration.
func (c *Client) SetOutletsConfig(ctx context.Context, cfg *AllOutletsConfig) error {
	return c.postForm(ctx, EndpointOutletConfig, cfg.FormValues(), c.Credentials())
}

// GetThresholdsConfig reads and decodes the warning/overload thresholds.
func (c *Client) GetThresholdsConfig(ctx context.Context) (*ThresholdsConfig, error) {
	root, err := c.fetch(ctx, EndpointThresholds, nil, c.Credentials())
	if err != nil {
		return nil, err
	}
	return DecodeThresholds(root)
}

// SetThresholdsConfig writes the warning/overload thresholds.
func (c *Client) SetThresholdsConfig(ctx context.Context, cfg *ThresholdsConfig) error {
	return c.postForm(ctx, EndpointThresholds, cfg.FormValues(), c.Credentials())
}

// GetNetworkConfig reads and decodes the network configuration.
func (c *Client) GetNetworkConfig(ctx context.Context) (*NetworkConfig, error) {
	root, err := c.fetch(ctx, EndpointNetwork, nil, c.Credentials())
	if err != nil {
		return nil, err
	}
	return DecodeNetworkConfig(root)
}

// SetNetworkConfig writes the network configuration.
func (c *Client) SetNetworkConfig(ctx context.Context, cfg *NetworkConfig) error {
	return c.postForm(ctx, EndpointNetwork, cfg.FormValues(), c.Credentials())
}

// SetOutlets applies one switching command to the given outlet indices
// (0-based). The firmware takes this as a GET with one parameter per target
// outlet, the numeric op code, and a literal submit parameter. The response
// body carries nothing useful; success is the request completing. Callers
// wanting confirmation should re-read GetStatus afterwards.
func (c *Client) SetOutlets(ctx context.Context, command OutletCommand, outlets ...int) error {
	if len(outlets) == 0 {
		return NewMalformedError("no outlet indices given", nil)
	}
	params := url.Values{}
	for _, idx := range outlets {
		if idx < 0 || idx >= OutletCount {
			return NewMalformedError(fmt.Sprintf("outlet index %d out of range 0-%d", idx, OutletCount-1), nil)
		}
		params.Set(fmt.Sprintf("outlet%d", idx), "1")
	}
	params.Set("op", strconv.Itoa(int(command)))
	params.Set("submit", submitValue)

	_, err := c.request(ctx, http.MethodGet, EndpointOutletControl, params, nil, c.Credentials())
	return err
}

// ChangeCredentials posts new credentials to the device and confirms the
// change by re-reading the status document. Only after the device reports
// the change as applied are the stored transport credentials swapped; on any
// failure the old credentials stay in force. The whole sequence holds the
// credential lock, so no concurrent request can go out half-updated.
func (c *Client) ChangeCredentials(ctx context.Context, next Credentials) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	old := c.creds

	if err := c.postForm(ctx, EndpointUsers, next.formValues(), old); err != nil {
		return err
	}

	status, err := c.getStatus(ctx, old)
	if err != nil {
		return err
	}
	if status.UserVerify != VerifyCredentialsChanged {
		return NewCredentialVerificationError(status.UserVerify)
	}

	c.creds = next
	c.Logger.Info("device credentials rotated", zap.String("username", next.Username))
	return nil
}

// Fetch issues a GET against an endpoint and returns the parsed response
// tree. It is the read primitive behind every Get* operation and the only
// way to reach the informational pages that have no codec.
func (c *Client) Fetch(ctx context.Context, endpoint Endpoint, params url.Values) (*markup.Node, error) {
	return c.fetch(ctx, endpoint, params, c.Credentials())
}

func (c *Client) fetch(ctx context.Context, endpoint Endpoint, params url.Values, creds Credentials) (*markup.Node, error) {
	body, err := c.request(ctx, http.MethodGet, endpoint, params, nil, creds)
	if err != nil {
		return nil, err
	}
	root, err := markup.Parse(body)
	if err != nil {
		return nil, NewMalformedError("unparseable response", err)
	}
	return root, nil
}

func (c *Client) postForm(ctx context.Context, endpoint Endpoint, data url.Values, creds Credentials) error {
	_, err := c.request(ctx, http.MethodPost, endpoint, nil, data, creds)
	return err
}

// request is the single HTTP primitive. GETs carry params in the query
// string; POSTs carry form in an x-www-form-urlencoded body.
func (c *Client) request(ctx context.Context, method string, endpoint Endpoint, params, form url.Values, creds Credentials) ([]byte, error) {
	u := c.BaseURL + string(endpoint)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, NewTransportError(endpoint, err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewTransportError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.Logger.Debug("device request",
		zap.String("method", method),
		zap.String("endpoint", string(endpoint)),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewAuthError(endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(endpoint, err)
	}
	return body, nil
}
