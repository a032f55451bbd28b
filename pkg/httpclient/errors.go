package httpclient

import (
	"errors"
	"fmt"
)

// ErrClosed is returned (wrapped in a ConfigurationError) when a closed Client is used.
var ErrClosed = errors.New("client is closed")

// InitializationError reports that the transport handle could not be created.
type InitializationError struct {
	Err error
}

// Error implements the error interface.
func (e *InitializationError) Error() string {
	return fmt.Sprintf("unable to create transport handle: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *InitializationError) Unwrap() error { return e.Err }

// ConfigurationError reports that options could not be applied to the handle.
// Nothing has been sent over the network when it is returned.
type ConfigurationError struct {
	// Op is the step that failed: "reset" or "configure".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unable to set transport options (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError reports a failed exchange: connection, DNS, TLS or a
// protocol that is not allowed for the client.
type TransportError struct {
	URI string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("failure performing the HTTP request: %q", e.Message())
}

// Message returns the transport's diagnostic text.
func (e *TransportError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// ErrProtocolDisallowed matches errors raised when a request or redirect
// targets a scheme outside the client's protocol set.
var ErrProtocolDisallowed = errors.New("protocol not allowed")

type protocolError struct {
	scheme string
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("protocol %q not supported or disabled", e.scheme)
}

func (e *protocolError) Is(target error) bool { return target == ErrProtocolDisallowed }

var (
	errNilHandle     = errors.New("transport returned a nil handle")
	errHandleClosed  = errors.New("handle is closed")
	errHeaderAborted = errors.New("failed writing header: header callback aborted the transfer")
)
