package connection

import (
	"errors"
	"fmt"

	"github.com/cec-project/cec-go/pkg/cec"
)

// Connection errors.
var (
	// ErrNotConnected is returned when an operation requires an open
	// connection and there is none, including after the adapter was
	// unplugged.
	ErrNotConnected = errors.New("not connected")

	// ErrAdapterBusy is returned by Open when another Connection in
	// this process already holds the same adapter.
	ErrAdapterBusy = errors.New("adapter already in use")

	// ErrClosed is returned for operations on a closed connection.
	ErrClosed = errors.New("connection closed")

	// ErrUnknownTarget is returned when a directed operation names the
	// broadcast address or an invalid logical address, or when a query
	// targets an address never observed on the bus.
	ErrUnknownTarget = errors.New("unknown target address")

	// ErrQueryInFlight is returned when a query to the same target for
	// the same reply is already waiting. CEC has no message IDs, so two
	// identical queries cannot be told apart on the bus.
	ErrQueryInFlight = errors.New("query already in flight")

	// ErrQueryTimeout is returned when the target did not reply within
	// the query timeout.
	ErrQueryTimeout = errors.New("query timed out")
)

// SendError wraps a driver transmit failure with the frame that failed.
type SendError struct {
	Frame cec.Frame
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s: %v", e.Frame, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ConfigError reports an invalid builder field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
