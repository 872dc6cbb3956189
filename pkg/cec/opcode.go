package cec

import "fmt"

// Opcode identifies a CEC frame's operation. Values are the one-byte
// encodings from the CEC specification.
type Opcode uint8

// Opcodes used by this library. The bus defines more; unknown opcodes
// pass through CommandReceived events untouched.
const (
	OpcodeFeatureAbort              Opcode = 0x00
	OpcodeImageViewOn               Opcode = 0x04
	OpcodeTextViewOn                Opcode = 0x0D
	OpcodeSetMenuLanguage           Opcode = 0x32
	OpcodeStandby                   Opcode = 0x36
	OpcodeUserControlPressed        Opcode = 0x44
	OpcodeUserControlRelease        Opcode = 0x45
	OpcodeGiveOSDName               Opcode = 0x46
	OpcodeSetOSDName                Opcode = 0x47
	OpcodeSystemAudioModeRequest    Opcode = 0x70
	OpcodeGiveAudioStatus           Opcode = 0x71
	OpcodeSetSystemAudioMode        Opcode = 0x72
	OpcodeReportAudioStatus         Opcode = 0x7A
	OpcodeGiveSystemAudioModeStatus Opcode = 0x7D
	OpcodeSystemAudioModeStatus     Opcode = 0x7E
	OpcodeRoutingChange             Opcode = 0x80
	OpcodeRoutingInformation        Opcode = 0x81
	OpcodeActiveSource              Opcode = 0x82
	OpcodeGivePhysicalAddress       Opcode = 0x83
	OpcodeReportPhysicalAddress     Opcode = 0x84
	OpcodeRequestActiveSource       Opcode = 0x85
	OpcodeSetStreamPath             Opcode = 0x86
	OpcodeDeviceVendorID            Opcode = 0x87
	OpcodeVendorCommand             Opcode = 0x89
	OpcodeVendorRemoteButtonDown    Opcode = 0x8A
	OpcodeVendorRemoteButtonUp      Opcode = 0x8B
	OpcodeGiveDeviceVendorID        Opcode = 0x8C
	OpcodeMenuRequest               Opcode = 0x8D
	OpcodeMenuStatus                Opcode = 0x8E
	OpcodeGiveDevicePowerStatus     Opcode = 0x8F
	OpcodeReportPowerStatus         Opcode = 0x90
	OpcodeGetMenuLanguage           Opcode = 0x91
	OpcodeInactiveSource            Opcode = 0x9D
	OpcodeCECVersion                Opcode = 0x9E
	OpcodeGetCECVersion             Opcode = 0x9F
	OpcodeVendorCommandWithID       Opcode = 0xA0
	OpcodeAbort                     Opcode = 0xFF
)

var opcodeNames = map[Opcode]string{
	OpcodeFeatureAbort:              "FEATURE_ABORT",
	OpcodeImageViewOn:               "IMAGE_VIEW_ON",
	OpcodeTextViewOn:                "TEXT_VIEW_ON",
	OpcodeSetMenuLanguage:           "SET_MENU_LANGUAGE",
	OpcodeStandby:                   "STANDBY",
	OpcodeUserControlPressed:        "USER_CONTROL_PRESSED",
	OpcodeUserControlRelease:        "USER_CONTROL_RELEASE",
	OpcodeGiveOSDName:               "GIVE_OSD_NAME",
	OpcodeSetOSDName:                "SET_OSD_NAME",
	OpcodeSystemAudioModeRequest:    "SYSTEM_AUDIO_MODE_REQUEST",
	OpcodeGiveAudioStatus:           "GIVE_AUDIO_STATUS",
	OpcodeSetSystemAudioMode:        "SET_SYSTEM_AUDIO_MODE",
	OpcodeReportAudioStatus:         "REPORT_AUDIO_STATUS",
	OpcodeGiveSystemAudioModeStatus: "GIVE_SYSTEM_AUDIO_MODE_STATUS",
	OpcodeSystemAudioModeStatus:     "SYSTEM_AUDIO_MODE_STATUS",
	OpcodeRoutingChange:             "ROUTING_CHANGE",
	OpcodeRoutingInformation:        "ROUTING_INFORMATION",
	OpcodeActiveSource:              "ACTIVE_SOURCE",
	OpcodeGivePhysicalAddress:       "GIVE_PHYSICAL_ADDRESS",
	OpcodeReportPhysicalAddress:     "REPORT_PHYSICAL_ADDRESS",
	OpcodeRequestActiveSource:       "REQUEST_ACTIVE_SOURCE",
	OpcodeSetStreamPath:             "SET_STREAM_PATH",
	OpcodeDeviceVendorID:            "DEVICE_VENDOR_ID",
	OpcodeVendorCommand:             "VENDOR_COMMAND",
	OpcodeVendorRemoteButtonDown:    "VENDOR_REMOTE_BUTTON_DOWN",
	OpcodeVendorRemoteButtonUp:      "VENDOR_REMOTE_BUTTON_UP",
	OpcodeGiveDeviceVendorID:        "GIVE_DEVICE_VENDOR_ID",
	OpcodeMenuRequest:               "MENU_REQUEST",
	OpcodeMenuStatus:                "MENU_STATUS",
	OpcodeGiveDevicePowerStatus:     "GIVE_DEVICE_POWER_STATUS",
	OpcodeReportPowerStatus:         "REPORT_POWER_STATUS",
	OpcodeGetMenuLanguage:           "GET_MENU_LANGUAGE",
	OpcodeInactiveSource:            "INACTIVE_SOURCE",
	OpcodeCECVersion:                "CEC_VERSION",
	OpcodeGetCECVersion:             "GET_CEC_VERSION",
	OpcodeVendorCommandWithID:       "VENDOR_COMMAND_WITH_ID",
	OpcodeAbort:                     "ABORT",
}

// String returns the specification name for the opcode.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OPCODE_%02X", uint8(o))
}
