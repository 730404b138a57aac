package pdu

import (
	"errors"
	"fmt"

	"github.com/ipdu/pductl/pkg/markup"
)

// ErrorKind categorizes errors raised while talking to the device.
type ErrorKind int

const (
	// KindNotFound indicates a required field or element was absent from a
	// parsed response document.
	KindNotFound ErrorKind = iota
	// KindMalformedDocument indicates a structural expectation was violated
	// (wrong row count, uncoercible field value).
	KindMalformedDocument
	// KindTransport indicates the underlying HTTP request failed.
	KindTransport
	// KindAuth indicates the device rejected the request credentials.
	KindAuth
	// KindHTTP indicates an unexpected HTTP status code.
	KindHTTP
	// KindCredentialVerification indicates the post-change status read did
	// not confirm a credential change.
	KindCredentialVerification
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "Field Not Found"
	case KindMalformedDocument:
		return "Malformed Document"
	case KindTransport:
		return "Transport Error"
	case KindAuth:
		return "Authentication Error"
	case KindHTTP:
		return "HTTP Error"
	case KindCredentialVerification:
		return "Credential Verification Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// DeviceError is the error type returned by all operations in this package.
// It carries enough context (field, endpoint) to diagnose a failure against
// the physical device.
type DeviceError struct {
	Kind       ErrorKind
	Message    string
	Field      string   // form field / element name, when applicable
	Endpoint   Endpoint // endpoint the request targeted, when applicable
	StatusCode int      // HTTP status code, when applicable
	Err        error    // underlying error, when applicable
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Endpoint != "" {
		msg += fmt.Sprintf(" (endpoint %s)", e.Endpoint)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates an error for a required field missing from a
// response document.
func NewNotFoundError(field string, err error) *DeviceError {
	return &DeviceError{Kind: KindNotFound, Message: "required field missing from response", Field: field, Err: err}
}

// NewMalformedError creates an error for a response document that violates a
// structural expectation.
func NewMalformedError(message string, err error) *DeviceError {
	return &DeviceError{Kind: KindMalformedDocument, Message: message, Err: err}
}

// NewFieldError creates an error for a field whose value could not be
// coerced to its expected type.
func NewFieldError(field string, err error) *DeviceError {
	return &DeviceError{Kind: KindMalformedDocument, Message: "field value has unexpected form", Field: field, Err: err}
}

// NewTransportError creates an error for an HTTP transport failure.
func NewTransportError(endpoint Endpoint, err error) *DeviceError {
	return &DeviceError{Kind: KindTransport, Message: "request failed", Endpoint: endpoint, Err: err}
}

// NewAuthError creates an error for a request the device rejected as
// unauthorized.
func NewAuthError(endpoint Endpoint) *DeviceError {
	return &DeviceError{Kind: KindAuth, Message: "authentication failed (check credentials)", Endpoint: endpoint, StatusCode: 401}
}

// NewHTTPError creates an error for an unexpected HTTP status code.
func NewHTTPError(endpoint Endpoint, statusCode int) *DeviceError {
	return &DeviceError{
		Kind:       KindHTTP,
		Message:    fmt.Sprintf("unexpected status code %d", statusCode),
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// NewCredentialVerificationError creates an error for a credential change the
// device did not confirm.
func NewCredentialVerificationError(result UserVerifyResult) *DeviceError {
	return &DeviceError{
		Kind:     KindCredentialVerification,
		Message:  fmt.Sprintf("device reported %s instead of confirming the change", result),
		Endpoint: EndpointUsers,
	}
}

// wrapDecodeErr converts a markup lookup failure into a DeviceError, keeping
// the missing key as field context.
func wrapDecodeErr(err error) *DeviceError {
	var nf *markup.NotFoundError
	if errors.As(err, &nf) {
		return NewNotFoundError(nf.Key, err)
	}
	return NewMalformedError("decode failed", err)
}

// IsNotFound reports whether err is a missing-field decode error.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsMalformedDocument reports whether err is a structural decode error.
func IsMalformedDocument(err error) bool {
	return hasKind(err, KindMalformedDocument)
}

// IsTransport reports whether err is an HTTP transport error.
func IsTransport(err error) bool {
	return hasKind(err, KindTransport)
}

// IsAuth reports whether err is an authentication error.
func IsAuth(err error) bool {
	return hasKind(err, KindAuth)
}

// IsCredentialVerification reports whether err is a failed credential change
// confirmation.
func IsCredentialVerification(err error) bool {
	return hasKind(err, KindCredentialVerification)
}

func hasKind(err error, kind ErrorKind) bool {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
