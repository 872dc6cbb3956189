package log

import (
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
)

// Event represents one captured observation on a connection.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow relative to the adapter.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// AdapterPort is the serial port of the adapter, when known.
	AdapterPort string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Traffic     *TrafficEvent     `cbor:"10,keyasint,omitempty"` // TX/RX frames
	Key         *KeyEvent         `cbor:"11,keyasint,omitempty"` // Remote key presses
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection state
	DriverMsg   *DriverMsgEvent   `cbor:"13,keyasint,omitempty"` // libcec diagnostics
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of a frame relative to the adapter.
type Direction uint8

const (
	// DirectionIn indicates a frame received from the bus.
	DirectionIn Direction = 0
	// DirectionOut indicates a frame transmitted onto the bus.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "RX"
	case DirectionOut:
		return "TX"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where an event was captured.
type Layer uint8

const (
	// LayerDriver is the vendor library boundary (callbacks, transmit).
	LayerDriver Layer = 0
	// LayerBridge is the event dispatch layer.
	LayerBridge Layer = 1
	// LayerCommand is the typed command layer.
	LayerCommand Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerDriver:
		return "DRIVER"
	case LayerBridge:
		return "BRIDGE"
	case LayerCommand:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryTraffic indicates a bus frame (TX or RX).
	CategoryTraffic Category = 0
	// CategoryKey indicates a remote-control key press or release.
	CategoryKey Category = 1
	// CategoryState indicates a connection state change.
	CategoryState Category = 2
	// CategoryDriver indicates a diagnostic line from the vendor library.
	CategoryDriver Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTraffic:
		return "TRAFFIC"
	case CategoryKey:
		return "KEY"
	case CategoryState:
		return "STATE"
	case CategoryDriver:
		return "DRIVER"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TrafficEvent captures one frame on the bus.
type TrafficEvent struct {
	// Initiator is the sending logical address.
	Initiator cec.LogicalAddress `cbor:"1,keyasint"`

	// Destination is the receiving logical address (15 = broadcast).
	Destination cec.LogicalAddress `cbor:"2,keyasint"`

	// Opcode of the frame; nil for poll frames.
	Opcode *cec.Opcode `cbor:"3,keyasint,omitempty"`

	// Parameters are the operand bytes.
	Parameters []byte `cbor:"4,keyasint,omitempty"`

	// Acked reports whether the frame was acknowledged.
	Acked bool `cbor:"5,keyasint,omitempty"`
}

// KeyEvent captures a remote-control key press or release.
type KeyEvent struct {
	// Code is the user-control code.
	Code cec.UserControlCode `cbor:"1,keyasint"`

	// Duration the key was held; zero for the initial press.
	Duration time.Duration `cbor:"2,keyasint,omitempty"`

	// Release marks the key-release half of the pair.
	Release bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// DriverMsgEvent captures a diagnostic line from the vendor library.
type DriverMsgEvent struct {
	// Level is the vendor library's severity for the line.
	Level cec.LogLevel `cbor:"1,keyasint"`

	// Message is the diagnostic text.
	Message string `cbor:"2,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
