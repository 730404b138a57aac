package sideband

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/ipdu/pductl/internal/logging"
)

// DefaultQueueSize is the default capacity of the inbound datagram queue.
const DefaultQueueSize = 16

// ErrClosed is returned by operations on a closed client, and by receives
// that were pending when the client closed.
var ErrClosed = errors.New("sideband: client closed")

// Config carries the optional knobs for Dial.
type Config struct {
	// LocalAddr is the local bind address ("host:port"). Empty binds an
	// ephemeral port on all interfaces.
	LocalAddr string

	// QueueSize is the inbound datagram queue capacity. Zero means
	// DefaultQueueSize.
	QueueSize int

	// Logger receives datagram-level debug output. Nil means no logging.
	Logger *zap.Logger
}

// Client owns one bound datagram endpoint aimed at a PDU's sideband port.
//
// A background goroutine moves every inbound datagram into a bounded queue;
// receivers dequeue one datagram at a time in arrival order. When the queue
// is full the background goroutine blocks, so further datagrams accumulate
// in (and eventually fall out of) the kernel socket buffer rather than being
// dropped here. Close poisons the queue so pending receives unblock with
// ErrClosed instead of waiting forever.
//
// No timeouts are enforced internally; bound the wait with the context
// passed to GetVoltage.
type Client struct {
	conn net.PacketConn
	peer net.Addr
	log  *zap.Logger

	packets chan []byte
	done    chan struct{}

	closeOnce sync.Once

	mu      sync.Mutex
	readErr error
}

// Dial binds a local datagram endpoint aimed at the device's sideband
// address with default settings.
func Dial(remoteAddr string) (*Client, error) {
	return DialConfig(remoteAddr, Config{})
}

// DialConfig binds a local datagram endpoint with explicit settings.
func DialConfig(remoteAddr string, cfg Config) (*Client, error) {
	peer, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("sideband: resolve %q: %w", remoteAddr, err)
	}

	local := cfg.LocalAddr
	if local == "" {
		local = ":0"
	}
	conn, err := net.ListenPacket("udp", local)
	if err != nil {
		return nil, fmt.Errorf("sideband: bind %q: %w", local, err)
	}

	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		conn:    conn,
		peer:    peer,
		log:     logger,
		packets: make(chan []byte, size),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// WithClient runs fn with a connected client and guarantees teardown on
// every exit path, including panics and send failures inside fn.
func WithClient(remoteAddr string, fn func(*Client) error) error {
	c, err := Dial(remoteAddr)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// Close tears down the endpoint. Pending and future receives return
// ErrClosed. Close is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

// LocalAddr returns the bound local address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// GetVoltage sends the fixed voltage query and waits for the device's
// reply. The reply is validated (length, magic, checksum) before the
// reading is extracted; a frame that fails validation is surfaced as a
// *FrameError, never as data.
func (c *Client) GetVoltage(ctx context.Context) (int, error) {
	query := AppendChecksum(voltageQuery)
	if err := c.send(query); err != nil {
		return 0, err
	}

	reply, err := c.receive(ctx)
	if err != nil {
		return 0, err
	}
	return parseVoltageReply(reply)
}

// send writes one datagram to the configured peer.
func (c *Client) send(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if _, err := c.conn.WriteTo(data, c.peer); err != nil {
		return fmt.Errorf("sideband: send: %w", err)
	}
	logging.LogDatagram(c.log, "send", c.peer.String(), data)
	return nil
}

// receive dequeues the next inbound datagram, blocking until one arrives,
// the context is done, or the client closes.
func (c *Client) receive(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-c.packets:
		if !ok {
			return nil, c.closedErr()
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readLoop is the delivery producer: it moves every inbound datagram into
// the bounded queue and closes the queue when the endpoint dies, so blocked
// receivers observe the terminal state instead of hanging.
func (c *Client) readLoop() {
	defer close(c.packets)

	// Far larger than any sideband frame, so an oversized reply reaches
	// validation whole and diagnostics carry what the device actually sent
	buf := make([]byte, 512)
	for {
		n, addr, err := c.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-c.done:
				// closed by Close; not a transport failure
			default:
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
				c.log.Debug("sideband read failed", zap.Error(err))
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		logging.LogDatagram(c.log, "recv", addr.String(), data)

		select {
		case c.packets <- data:
		case <-c.done:
			return
		}
	}
}

// closedErr reports why the queue terminated: a captured transport error if
// one occurred, ErrClosed otherwise.
func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return fmt.Errorf("sideband: transport failed: %w", c.readErr)
	}
	return ErrClosed
}
