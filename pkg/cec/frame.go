package cec

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFrameDataSize is the largest operand payload the native layer
// accepts. It matches libcec's fixed 64-byte data packet buffer.
const MaxFrameDataSize = 64

// Frame errors.
var (
	ErrFrameTooLarge = errors.New("frame payload exceeds 64 bytes")
	ErrFrameEmpty    = errors.New("frame has no header block")
)

// Frame is a single CEC bus transmission: a header block naming the
// initiator and destination, an optional opcode and up to 64 bytes of
// operands.
//
// A frame with OpcodeSet false is a polling message (header only).
type Frame struct {
	// Initiator is the logical address the frame was sent from.
	Initiator LogicalAddress

	// Destination is the logical address the frame is addressed to,
	// possibly AddressBroadcast.
	Destination LogicalAddress

	// Opcode identifies the operation. Only meaningful when OpcodeSet.
	Opcode Opcode

	// OpcodeSet distinguishes an operation frame from a polling frame.
	OpcodeSet bool

	// Parameters are the operand bytes following the opcode.
	Parameters []byte

	// Ack reports whether the frame was acknowledged on the bus.
	// Populated on received frames only.
	Ack bool
}

// NewFrame builds an operation frame.
func NewFrame(initiator, destination LogicalAddress, opcode Opcode, params ...byte) Frame {
	return Frame{
		Initiator:   initiator,
		Destination: destination,
		Opcode:      opcode,
		OpcodeSet:   true,
		Parameters:  params,
	}
}

// PollFrame builds a header-only polling frame used to probe whether a
// logical address is in use.
func PollFrame(initiator, destination LogicalAddress) Frame {
	return Frame{Initiator: initiator, Destination: destination}
}

// Validate checks that the frame can be handed to the native layer.
func (f Frame) Validate() error {
	if !f.Initiator.IsValid() || !f.Destination.IsValid() {
		return fmt.Errorf("frame %s: invalid address", f)
	}
	if len(f.Parameters) > MaxFrameDataSize {
		return ErrFrameTooLarge
	}
	return nil
}

// header returns the header block: initiator in the high nibble,
// destination in the low nibble.
func (f Frame) header() byte {
	return byte(f.Initiator)<<4 | byte(f.Destination)&0x0F
}

// Marshal encodes the frame as raw bus blocks (header, opcode, operands).
func (f Frame) Marshal() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+len(f.Parameters))
	out = append(out, f.header())
	if f.OpcodeSet {
		out = append(out, byte(f.Opcode))
		out = append(out, f.Parameters...)
	}
	return out, nil
}

// UnmarshalFrame decodes raw bus blocks into a Frame.
func UnmarshalFrame(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrFrameEmpty
	}
	if len(data) > 2+MaxFrameDataSize {
		return Frame{}, ErrFrameTooLarge
	}
	f := Frame{
		Initiator:   LogicalAddress(data[0] >> 4),
		Destination: LogicalAddress(data[0] & 0x0F),
	}
	if len(data) > 1 {
		f.Opcode = Opcode(data[1])
		f.OpcodeSet = true
		if len(data) > 2 {
			f.Parameters = append([]byte(nil), data[2:]...)
		}
	}
	return f, nil
}

// String formats the frame the way libcec traffic logs do, e.g.
// "4f:82:10:00" for an ACTIVE_SOURCE broadcast from playback device 1.
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02x", f.header())
	if f.OpcodeSet {
		fmt.Fprintf(&b, ":%02x", byte(f.Opcode))
		for _, p := range f.Parameters {
			fmt.Fprintf(&b, ":%02x", p)
		}
	}
	return b.String()
}
