package sideband

import (
	"bytes"
	"fmt"
)

// Wire format constants. The command and reply magics are fixed by the
// firmware; there is no negotiation.
var (
	// voltageQuery is the 4-byte voltage query command, sent with a checksum
	// trailer appended.
	voltageQuery = []byte{0xA7, 0x40, 0x06, 0x00}

	// voltageReplyMagic is the required prefix of a voltage reply.
	voltageReplyMagic = []byte{0xA7, 0x42, 0x06, 0x08}
)

const (
	// voltageReplyLen is the exact length of a voltage reply: 4 magic bytes,
	// 8 payload bytes, 1 checksum byte.
	voltageReplyLen = 13

	// payloadStart is the offset of the 8-byte payload window in a reply.
	payloadStart = 4
)

// FrameErrorKind categorizes rejected frames.
type FrameErrorKind int

const (
	// FrameMalformed indicates the reply violates the expected shape
	// (wrong length).
	FrameMalformed FrameErrorKind = iota
	// FrameValidationFailed indicates the reply has the right shape but the
	// wrong magic bytes or a bad checksum.
	FrameValidationFailed
)

// FrameError is returned when an inbound frame is rejected. The offending
// frame rides along for diagnosis against the device.
type FrameError struct {
	Kind    FrameErrorKind
	Message string
	Frame   []byte
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("sideband: %s (frame % x)", e.Message, e.Frame)
}

// IsMalformedReply reports whether err is a wrong-shape frame rejection.
func IsMalformedReply(err error) bool {
	return frameErrKind(err) == FrameMalformed
}

// IsValidationFailure reports whether err is a magic-byte or checksum
// rejection.
func IsValidationFailure(err error) bool {
	return frameErrKind(err) == FrameValidationFailed
}

func frameErrKind(err error) FrameErrorKind {
	if fe, ok := err.(*FrameError); ok {
		return fe.Kind
	}
	return FrameErrorKind(-1)
}

// onesComplementAdd adds b into a with end-around carry: any carry out of
// the low byte is folded back in.
func onesComplementAdd(a, b int) int {
	c := a + b
	return (c & 0xFF) + (c >> 8)
}

// Checksum computes the 8-bit ones'-complement sum of msg.
func Checksum(msg []byte) byte {
	sum := 0
	for _, b := range msg {
		sum = onesComplementAdd(sum, int(b))
	}
	return byte(sum)
}

// AppendChecksum returns msg with its checksum byte appended.
func AppendChecksum(msg []byte) []byte {
	out := make([]byte, 0, len(msg)+1)
	out = append(out, msg...)
	return append(out, Checksum(msg))
}

// VerifyChecksum reports whether the last byte of frame is the checksum of
// the preceding bytes.
func VerifyChecksum(frame []byte) bool {
	if len(frame) < 1 {
		return false
	}
	return frame[len(frame)-1] == Checksum(frame[:len(frame)-1])
}

// parseVoltageReply validates a reply frame and extracts the voltage. The
// voltage is the first byte of the payload window; the remaining payload
// bytes are reserved by the firmware.
func parseVoltageReply(frame []byte) (int, error) {
	if len(frame) != voltageReplyLen {
		return 0, &FrameError{
			Kind:    FrameMalformed,
			Message: fmt.Sprintf("reply is %d bytes, want %d", len(frame), voltageReplyLen),
			Frame:   frame,
		}
	}
	if !bytes.Equal(frame[:len(voltageReplyMagic)], voltageReplyMagic) {
		return 0, &FrameError{
			Kind:    FrameValidationFailed,
			Message: "reply has wrong magic bytes",
			Frame:   frame,
		}
	}
	if !VerifyChecksum(frame) {
		return 0, &FrameError{
			Kind:    FrameValidationFailed,
			Message: "reply checksum mismatch",
			Frame:   frame,
		}
	}
	return int(frame[payloadStart]), nil
}
