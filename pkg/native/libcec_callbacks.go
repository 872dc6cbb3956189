//go:build libcec

package native

/*
#include <libcec/cecc.h>
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/cec-project/cec-go/pkg/cec"
)

// The exported functions below run on libcec's driver thread. They do
// the minimum to cross into Go: look up the handle, convert the C
// payload, call the registered callback. Anything slow belongs behind
// the callback, not here.

//export bridgeLogMessage
func bridgeLogMessage(param unsafe.Pointer, message *C.cec_log_message) {
	h := lookupHandle(param)
	if h == nil || h.table.LogMessage == nil {
		return
	}
	h.table.LogMessage(
		cec.LogLevel(message.level),
		time.Duration(message.time)*time.Millisecond,
		C.GoString(message.message),
	)
}

//export bridgeKeyPress
func bridgeKeyPress(param unsafe.Pointer, key *C.cec_keypress) {
	h := lookupHandle(param)
	if h == nil || h.table.KeyPress == nil {
		return
	}
	h.table.KeyPress(
		cec.UserControlCode(key.keycode),
		time.Duration(key.duration)*time.Millisecond,
	)
}

//export bridgeCommandReceived
func bridgeCommandReceived(param unsafe.Pointer, command *C.cec_command) {
	h := lookupHandle(param)
	if h == nil || h.table.Command == nil {
		return
	}

	f := cec.Frame{
		Initiator:   cec.LogicalAddress(command.initiator),
		Destination: cec.LogicalAddress(command.destination),
		Ack:         command.ack != 0,
	}
	if command.opcode_set != 0 {
		f.Opcode = cec.Opcode(command.opcode)
		f.OpcodeSet = true
	}
	if n := int(command.parameters.size); n > 0 {
		f.Parameters = make([]byte, n)
		for i := 0; i < n; i++ {
			f.Parameters[i] = byte(command.parameters.data[i])
		}
	}
	h.table.Command(f)
}

//export bridgeConfigurationChanged
func bridgeConfigurationChanged(param unsafe.Pointer, configuration *C.libcec_configuration) {
	h := lookupHandle(param)
	if h == nil || h.table.ConfigurationChanged == nil {
		return
	}
	h.table.ConfigurationChanged(
		logicalAddressesFromMask(configuration.logicalAddresses),
		cec.PhysicalAddress(configuration.iPhysicalAddress),
	)
}

//export bridgeAlert
func bridgeAlert(param unsafe.Pointer, alertType C.libcec_alert, p C.libcec_parameter) {
	h := lookupHandle(param)
	if h == nil || h.table.Alert == nil {
		return
	}

	var detail string
	if p.paramType == C.CEC_PARAMETER_TYPE_STRING && p.paramData != nil {
		detail = C.GoString((*C.char)(p.paramData))
	}
	h.table.Alert(alertKindFromC(alertType), detail)
}

//export bridgeSourceActivated
func bridgeSourceActivated(param unsafe.Pointer, address C.cec_logical_address, activated C.uint8_t) {
	h := lookupHandle(param)
	if h == nil || h.table.SourceActivated == nil {
		return
	}
	h.table.SourceActivated(cec.LogicalAddress(address), activated != 0)
}

func alertKindFromC(t C.libcec_alert) cec.AlertKind {
	switch t {
	case C.CEC_ALERT_SERVICE_DEVICE:
		return cec.AlertServiceDevice
	case C.CEC_ALERT_CONNECTION_LOST:
		return cec.AlertConnectionLost
	case C.CEC_ALERT_PERMISSION_ERROR:
		return cec.AlertPermissionError
	case C.CEC_ALERT_PORT_BUSY:
		return cec.AlertPortBusy
	case C.CEC_ALERT_PHYSICAL_ADDRESS_ERROR:
		return cec.AlertPhysicalAddressError
	case C.CEC_ALERT_TV_POLL_FAILED:
		return cec.AlertTVPollFailed
	default:
		return cec.AlertServiceDevice
	}
}
