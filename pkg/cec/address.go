package cec

import (
	"fmt"
	"strconv"
	"strings"
)

// LogicalAddress identifies a participant slot on the CEC bus.
// Addresses are negotiated by the driver at connection time; the
// application never picks one directly.
type LogicalAddress int8

// Logical addresses as defined by the CEC specification.
const (
	// AddressUnknown indicates no address has been negotiated yet.
	AddressUnknown LogicalAddress = -1

	AddressTV               LogicalAddress = 0
	AddressRecordingDevice1 LogicalAddress = 1
	AddressRecordingDevice2 LogicalAddress = 2
	AddressTuner1           LogicalAddress = 3
	AddressPlaybackDevice1  LogicalAddress = 4
	AddressAudioSystem      LogicalAddress = 5
	AddressTuner2           LogicalAddress = 6
	AddressTuner3           LogicalAddress = 7
	AddressPlaybackDevice2  LogicalAddress = 8
	AddressRecordingDevice3 LogicalAddress = 9
	AddressTuner4           LogicalAddress = 10
	AddressPlaybackDevice3  LogicalAddress = 11
	AddressReserved1        LogicalAddress = 12
	AddressReserved2        LogicalAddress = 13
	AddressFreeUse          LogicalAddress = 14

	// AddressUnregistered doubles as the broadcast destination.
	AddressUnregistered LogicalAddress = 15
	AddressBroadcast    LogicalAddress = 15
)

var logicalAddressNames = map[LogicalAddress]string{
	AddressUnknown:          "Unknown",
	AddressTV:               "TV",
	AddressRecordingDevice1: "Recording Device 1",
	AddressRecordingDevice2: "Recording Device 2",
	AddressTuner1:           "Tuner 1",
	AddressPlaybackDevice1:  "Playback Device 1",
	AddressAudioSystem:      "Audio System",
	AddressTuner2:           "Tuner 2",
	AddressTuner3:           "Tuner 3",
	AddressPlaybackDevice2:  "Playback Device 2",
	AddressRecordingDevice3: "Recording Device 3",
	AddressTuner4:           "Tuner 4",
	AddressPlaybackDevice3:  "Playback Device 3",
	AddressReserved1:        "Reserved 1",
	AddressReserved2:        "Reserved 2",
	AddressFreeUse:          "Free Use",
	AddressUnregistered:     "Broadcast",
}

// String returns the human-readable address name.
func (a LogicalAddress) String() string {
	if name, ok := logicalAddressNames[a]; ok {
		return name
	}
	return fmt.Sprintf("LogicalAddress(%d)", int8(a))
}

// IsValid reports whether the address is a valid bus participant slot (0-15).
func (a LogicalAddress) IsValid() bool {
	return a >= AddressTV && a <= AddressUnregistered
}

// IsBroadcast reports whether the address is the broadcast destination.
func (a LogicalAddress) IsBroadcast() bool {
	return a == AddressBroadcast
}

// PhysicalAddress encodes a device's position in the HDMI cabling
// topology as four nibbles, e.g. 0x1000 for a device on the TV's
// first input ("1.0.0.0").
type PhysicalAddress uint16

// PhysicalAddressUnknown is reported by devices that have not learned
// their position yet.
const PhysicalAddressUnknown PhysicalAddress = 0xFFFF

// String formats the address in the usual dotted notation, e.g. "1.0.0.0".
func (p PhysicalAddress) String() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		(p>>12)&0xF, (p>>8)&0xF, (p>>4)&0xF, p&0xF)
}

// Bytes returns the big-endian two-byte encoding used in frame operands.
func (p PhysicalAddress) Bytes() [2]byte {
	return [2]byte{byte(p >> 8), byte(p)}
}

// PhysicalAddressFromBytes decodes the two-byte operand encoding.
func PhysicalAddressFromBytes(hi, lo byte) PhysicalAddress {
	return PhysicalAddress(uint16(hi)<<8 | uint16(lo))
}

// ParsePhysicalAddress parses the dotted notation ("1.0.0.0") or a
// plain hex value ("0x1000", "1000").
func ParsePhysicalAddress(s string) (PhysicalAddress, error) {
	if strings.Contains(s, ".") {
		parts := strings.Split(s, ".")
		if len(parts) != 4 {
			return 0, fmt.Errorf("physical address %q: want 4 dotted fields", s)
		}
		var addr uint16
		for _, part := range parts {
			n, err := strconv.ParseUint(part, 10, 8)
			if err != nil || n > 0xF {
				return 0, fmt.Errorf("physical address %q: field %q out of range", s, part)
			}
			addr = addr<<4 | uint16(n)
		}
		return PhysicalAddress(addr), nil
	}

	s = strings.TrimPrefix(s, "0x")
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("physical address %q: %w", s, err)
	}
	return PhysicalAddress(n), nil
}

// DeviceType is the role a device presents on the bus. A host may
// present several roles at once (e.g. recorder and playback device).
type DeviceType uint8

// Device types as defined by the CEC specification.
const (
	DeviceTV              DeviceType = 0
	DeviceRecordingDevice DeviceType = 1
	DeviceReserved        DeviceType = 2
	DeviceTuner           DeviceType = 3
	DevicePlaybackDevice  DeviceType = 4
	DeviceAudioSystem     DeviceType = 5
)

// String returns the device type name.
func (d DeviceType) String() string {
	switch d {
	case DeviceTV:
		return "TV"
	case DeviceRecordingDevice:
		return "Recording Device"
	case DeviceReserved:
		return "Reserved"
	case DeviceTuner:
		return "Tuner"
	case DevicePlaybackDevice:
		return "Playback Device"
	case DeviceAudioSystem:
		return "Audio System"
	default:
		return fmt.Sprintf("DeviceType(%d)", uint8(d))
	}
}

// IsValid reports whether the type may be announced on the bus.
func (d DeviceType) IsValid() bool {
	return d <= DeviceAudioSystem && d != DeviceReserved
}
