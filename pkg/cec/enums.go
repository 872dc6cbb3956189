package cec

import "fmt"

// PowerStatus is a device's power state as reported on the bus.
type PowerStatus uint8

// Power status values from the CEC specification.
const (
	PowerOn                      PowerStatus = 0x00
	PowerStandby                 PowerStatus = 0x01
	PowerInTransitionStandbyToOn PowerStatus = 0x02
	PowerInTransitionOnToStandby PowerStatus = 0x03

	// PowerUnknown is a libcec extension for "never reported".
	PowerUnknown PowerStatus = 0x99
)

// String returns the power status name.
func (p PowerStatus) String() string {
	switch p {
	case PowerOn:
		return "On"
	case PowerStandby:
		return "Standby"
	case PowerInTransitionStandbyToOn:
		return "In Transition (Standby to On)"
	case PowerInTransitionOnToStandby:
		return "In Transition (On to Standby)"
	case PowerUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("PowerStatus(%#02x)", uint8(p))
	}
}

// Version is the CEC protocol version spoken by a device.
type Version uint8

// CEC protocol versions.
const (
	VersionUnknown Version = 0x00
	Version1_2     Version = 0x01
	Version1_2a    Version = 0x02
	Version1_3     Version = 0x03
	Version1_3a    Version = 0x04
	Version1_4     Version = 0x05
	Version2_0     Version = 0x06
)

// String returns the version in dotted notation.
func (v Version) String() string {
	switch v {
	case VersionUnknown:
		return "unknown"
	case Version1_2:
		return "1.2"
	case Version1_2a:
		return "1.2a"
	case Version1_3:
		return "1.3"
	case Version1_3a:
		return "1.3a"
	case Version1_4:
		return "1.4"
	case Version2_0:
		return "2.0"
	default:
		return fmt.Sprintf("Version(%#02x)", uint8(v))
	}
}

// VendorID is the 24-bit IEEE OUI a device reports on the bus.
type VendorID uint32

// Vendor IDs seen in the wild. The list is not exhaustive; unknown
// vendors format as their hex value.
const (
	VendorUnknown    VendorID = 0
	VendorToshiba    VendorID = 0x000039
	VendorSamsung    VendorID = 0x0000F0
	VendorDenon      VendorID = 0x0005CD
	VendorMarantz    VendorID = 0x000678
	VendorLoewe      VendorID = 0x000982
	VendorOnkyo      VendorID = 0x0009B0
	VendorMedion     VendorID = 0x000CB8
	VendorApple      VendorID = 0x0010FA
	VendorPulseEight VendorID = 0x001582
	VendorGoogle     VendorID = 0x001A11
	VendorSony       VendorID = 0x080046
	VendorSharp      VendorID = 0x08001F
	VendorPanasonic  VendorID = 0x008045
	VendorPioneer    VendorID = 0x00E036
	VendorLG         VendorID = 0x00E091
	VendorPhilips    VendorID = 0x00903E
	VendorYamaha     VendorID = 0x00A0DE
	VendorVizio      VendorID = 0x6B746D
	VendorBroadcom   VendorID = 0x18C086
)

var vendorNames = map[VendorID]string{
	VendorToshiba:    "Toshiba",
	VendorSamsung:    "Samsung",
	VendorDenon:      "Denon",
	VendorMarantz:    "Marantz",
	VendorLoewe:      "Loewe",
	VendorOnkyo:      "Onkyo",
	VendorMedion:     "Medion",
	VendorApple:      "Apple",
	VendorPulseEight: "Pulse-Eight",
	VendorGoogle:     "Google",
	VendorSony:       "Sony",
	VendorSharp:      "Sharp",
	VendorPanasonic:  "Panasonic",
	VendorPioneer:    "Pioneer",
	VendorLG:         "LG",
	VendorPhilips:    "Philips",
	VendorYamaha:     "Yamaha",
	VendorVizio:      "Vizio",
	VendorBroadcom:   "Broadcom",
}

// String returns the vendor name, or the hex OUI when unknown.
func (v VendorID) String() string {
	if v == VendorUnknown {
		return "Unknown"
	}
	if name, ok := vendorNames[v]; ok {
		return name
	}
	return fmt.Sprintf("%06X", uint32(v))
}

// Bytes returns the three-byte big-endian operand encoding.
func (v VendorID) Bytes() [3]byte {
	return [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

// VendorIDFromBytes decodes the three-byte operand encoding.
func VendorIDFromBytes(b []byte) VendorID {
	if len(b) < 3 {
		return VendorUnknown
	}
	return VendorID(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
}

// UserControlCode is a remote-control button code carried in
// USER_CONTROL_PRESSED frames.
type UserControlCode uint8

// User control codes used by this library (subset of the full table).
const (
	UserControlSelect      UserControlCode = 0x00
	UserControlUp          UserControlCode = 0x01
	UserControlDown        UserControlCode = 0x02
	UserControlLeft        UserControlCode = 0x03
	UserControlRight       UserControlCode = 0x04
	UserControlRootMenu    UserControlCode = 0x09
	UserControlExit        UserControlCode = 0x0D
	UserControlPower       UserControlCode = 0x40
	UserControlVolumeUp    UserControlCode = 0x41
	UserControlVolumeDown  UserControlCode = 0x42
	UserControlMute        UserControlCode = 0x43
	UserControlPlay        UserControlCode = 0x44
	UserControlStop        UserControlCode = 0x45
	UserControlPause       UserControlCode = 0x46
	UserControlRewind      UserControlCode = 0x48
	UserControlFastForward UserControlCode = 0x49

	// Mute Function forces mute on regardless of current state; Restore
	// Volume Function undoes it.
	UserControlMuteFunction          UserControlCode = 0x65
	UserControlRestoreVolumeFunction UserControlCode = 0x66

	UserControlPowerToggle UserControlCode = 0x6B
	UserControlPowerOff    UserControlCode = 0x6C
	UserControlPowerOn     UserControlCode = 0x6D
)

var userControlNames = map[UserControlCode]string{
	UserControlSelect:      "Select",
	UserControlUp:          "Up",
	UserControlDown:        "Down",
	UserControlLeft:        "Left",
	UserControlRight:       "Right",
	UserControlRootMenu:    "Root Menu",
	UserControlExit:        "Exit",
	UserControlPower:       "Power",
	UserControlVolumeUp:    "Volume Up",
	UserControlVolumeDown:  "Volume Down",
	UserControlMute:        "Mute",
	UserControlPlay:        "Play",
	UserControlStop:        "Stop",
	UserControlPause:       "Pause",
	UserControlRewind:      "Rewind",
	UserControlFastForward: "Fast Forward",

	UserControlMuteFunction:          "Mute Function",
	UserControlRestoreVolumeFunction: "Restore Volume Function",

	UserControlPowerToggle: "Power Toggle",
	UserControlPowerOff:    "Power Off",
	UserControlPowerOn:     "Power On",
}

// String returns the button name.
func (u UserControlCode) String() string {
	if name, ok := userControlNames[u]; ok {
		return name
	}
	return fmt.Sprintf("UserControl(%#02x)", uint8(u))
}

// LogLevel classifies a driver log message. Values are the libcec
// bitmask levels.
type LogLevel uint8

// Driver log levels.
const (
	LogError   LogLevel = 1
	LogWarning LogLevel = 2
	LogNotice  LogLevel = 4
	LogTraffic LogLevel = 8
	LogDebug   LogLevel = 16
)

// String returns the level name.
func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarning:
		return "WARNING"
	case LogNotice:
		return "NOTICE"
	case LogTraffic:
		return "TRAFFIC"
	case LogDebug:
		return "DEBUG"
	default:
		return fmt.Sprintf("LogLevel(%d)", uint8(l))
	}
}

// AlertKind classifies an asynchronous driver fault report.
type AlertKind uint8

// Alert kinds reported by the driver.
const (
	AlertServiceDevice AlertKind = iota
	AlertConnectionLost
	AlertPermissionError
	AlertPortBusy
	AlertPhysicalAddressError
	AlertTVPollFailed
)

// String returns the alert kind name.
func (a AlertKind) String() string {
	switch a {
	case AlertServiceDevice:
		return "SERVICE_DEVICE"
	case AlertConnectionLost:
		return "CONNECTION_LOST"
	case AlertPermissionError:
		return "PERMISSION_ERROR"
	case AlertPortBusy:
		return "PORT_BUSY"
	case AlertPhysicalAddressError:
		return "PHYSICAL_ADDRESS_ERROR"
	case AlertTVPollFailed:
		return "TV_POLL_FAILED"
	default:
		return fmt.Sprintf("AlertKind(%d)", uint8(a))
	}
}
