package sideband

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// fakeDevice is a loopback UDP responder standing in for the PDU firmware.
type fakeDevice struct {
	conn net.PacketConn
}

func newFakeDevice(t *testing.T, handle func(query []byte) [][]byte) *fakeDevice {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	d := &fakeDevice{conn: conn}
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, 64)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			query := make([]byte, n)
			copy(query, buf[:n])
			for _, reply := range handle(query) {
				_, _ = conn.WriteTo(reply, addr)
			}
		}
	}()
	return d
}

func (d *fakeDevice) addr() string {
	return d.conn.LocalAddr().String()
}

func TestGetVoltage(t *testing.T) {
	var gotQuery []byte
	device := newFakeDevice(t, func(query []byte) [][]byte {
		gotQuery = query
		return [][]byte{validVoltageReply(230)}
	})

	client, err := Dial(device.addr())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	volts, err := client.GetVoltage(ctx)
	if err != nil {
		t.Fatalf("GetVoltage() error = %v", err)
	}
	if volts != 230 {
		t.Errorf("GetVoltage() = %d, want 230", volts)
	}

	wantQuery := []byte{0xA7, 0x40, 0x06, 0x00, 0xED}
	if !bytes.Equal(gotQuery, wantQuery) {
		t.Errorf("device received % x, want % x", gotQuery, wantQuery)
	}
}

func TestGetVoltageRejectsBadReplies(t *testing.T) {
	tests := []struct {
		name     string
		reply    []byte
		checkErr func(error) bool
	}{
		{
			name:     "truncated reply",
			reply:    validVoltageReply(230)[:11],
			checkErr: IsMalformedReply,
		},
		{
			name: "corrupted checksum",
			reply: func() []byte {
				f := validVoltageReply(230)
				f[len(f)-1] ^= 0x80
				return f
			}(),
			checkErr: IsValidationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := newFakeDevice(t, func([]byte) [][]byte {
				return [][]byte{tt.reply}
			})

			client, err := Dial(device.addr())
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err = client.GetVoltage(ctx)
			if err == nil {
				t.Fatal("GetVoltage() succeeded with invalid reply")
			}
			if !tt.checkErr(err) {
				t.Errorf("GetVoltage() error = %v, wrong kind", err)
			}
		})
	}
}

func TestOversizedReplyKeptWhole(t *testing.T) {
	// an oversized reply must reach validation untruncated so the error
	// carries what the device actually sent
	oversized := make([]byte, 100)
	for i := range oversized {
		oversized[i] = byte(i)
	}
	device := newFakeDevice(t, func([]byte) [][]byte {
		return [][]byte{oversized}
	})

	client, err := Dial(device.addr())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.GetVoltage(ctx)
	if err == nil {
		t.Fatal("GetVoltage() succeeded with oversized reply")
	}
	if !IsMalformedReply(err) {
		t.Fatalf("GetVoltage() error = %v, want malformed reply", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("GetVoltage() error = %v, want *FrameError", err)
	}
	if len(frameErr.Frame) != len(oversized) {
		t.Errorf("FrameError.Frame has %d bytes, want %d", len(frameErr.Frame), len(oversized))
	}
	if !bytes.Equal(frameErr.Frame, oversized) {
		t.Error("FrameError.Frame does not match the datagram the device sent")
	}
}

func TestReceiveOrderPreserved(t *testing.T) {
	device := newFakeDevice(t, func([]byte) [][]byte {
		return [][]byte{{0x01}, {0x02}, {0x03}}
	})

	client, err := Dial(device.addr())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	if err := client.send(AppendChecksum(voltageQuery)); err != nil {
		t.Fatalf("send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i, want := range []byte{0x01, 0x02, 0x03} {
		data, err := client.receive(ctx)
		if err != nil {
			t.Fatalf("receive() %d error = %v", i, err)
		}
		if len(data) != 1 || data[0] != want {
			t.Errorf("receive() %d = % x, want %02x", i, data, want)
		}
	}
}

func TestCloseUnblocksPendingReceive(t *testing.T) {
	// no responder: the receive can only end via Close
	client, err := Dial("127.0.0.1:9") // discard port, nothing listens
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := client.receive(context.Background())
		errc <- err
	}()

	time.Sleep(50 * time.Millisecond)
	_ = client.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("receive() after Close error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("receive() still blocked after Close")
	}
}

func TestReceiveHonorsContext(t *testing.T) {
	client, err := Dial("127.0.0.1:9")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.receive(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("receive() error = %v, want DeadlineExceeded", err)
	}
}

func TestSendAfterClose(t *testing.T) {
	client, err := Dial("127.0.0.1:9")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = client.Close()

	if err := client.send([]byte{0x00}); !errors.Is(err, ErrClosed) {
		t.Errorf("send() after Close error = %v, want ErrClosed", err)
	}
}

func TestWithClientTearsDown(t *testing.T) {
	var captured *Client
	err := WithClient("127.0.0.1:9", func(c *Client) error {
		captured = c
		return nil
	})
	if err != nil {
		t.Fatalf("WithClient() error = %v", err)
	}

	// endpoint must be closed on exit
	if err := captured.send([]byte{0x00}); !errors.Is(err, ErrClosed) {
		t.Errorf("send() after WithClient returned error = %v, want ErrClosed", err)
	}
}
