//go:build libcec

package native

/*
#cgo pkg-config: libcec
#include <stdlib.h>
#include <string.h>
#include <libcec/cecc.h>

extern void bridgeLogMessage(void *param, const cec_log_message *message);
extern void bridgeKeyPress(void *param, const cec_keypress *key);
extern void bridgeCommandReceived(void *param, const cec_command *command);
extern void bridgeConfigurationChanged(void *param, const libcec_configuration *configuration);
extern void bridgeAlert(void *param, const libcec_alert type, const libcec_parameter p);
extern void bridgeSourceActivated(void *param, const cec_logical_address address, const uint8_t activated);

static ICECCallbacks bridge_callbacks = {
	.logMessage           = bridgeLogMessage,
	.keyPress             = bridgeKeyPress,
	.commandReceived      = bridgeCommandReceived,
	.configurationChanged = bridgeConfigurationChanged,
	.alert                = bridgeAlert,
	.menuStateChanged     = NULL,
	.sourceActivated      = bridgeSourceActivated,
};

static ICECCallbacks *bridge_callback_table(void) { return &bridge_callbacks; }
*/
import "C"

import (
	"sync"
	"time"
	"unsafe"

	"github.com/cec-project/cec-go/pkg/cec"
)

// libcecDriver is the libcec-backed Driver. One instance serves the
// whole process; libcec itself allows multiple connections but shares
// global state, so all handles go through this singleton.
type libcecDriver struct{}

var defaultDriver = &libcecDriver{}

// Default returns the libcec-backed driver.
func Default() (Driver, error) {
	return defaultDriver, nil
}

// libcecHandle is one open libcec connection. The token is a C
// allocation used as the callback param, so trampolines can find the
// handle without passing Go pointers through C.
type libcecHandle struct {
	conn  C.libcec_connection_t
	token unsafe.Pointer
	table CallbackTable

	mu     sync.Mutex
	closed bool
}

// handles maps callback tokens to open handles. Trampolines read it on
// the driver thread.
var (
	handlesMu sync.RWMutex
	handles   = make(map[unsafe.Pointer]*libcecHandle)
)

func lookupHandle(token unsafe.Pointer) *libcecHandle {
	handlesMu.RLock()
	defer handlesMu.RUnlock()
	return handles[token]
}

func (d *libcecDriver) Adapters() ([]AdapterInfo, error) {
	var cfg C.libcec_configuration
	C.libcec_clear_configuration(&cfg)
	cfg.clientVersion = C.LIBCEC_VERSION_CURRENT

	conn := C.libcec_initialise(&cfg)
	if conn == nil {
		return nil, &OpenError{Code: -1}
	}
	defer C.libcec_destroy(conn)

	var found [10]C.cec_adapter
	n := C.libcec_find_adapters(conn, &found[0], C.uint8_t(len(found)), nil)
	if n < 0 {
		return nil, &OpenError{Code: int(n)}
	}

	infos := make([]AdapterInfo, 0, int(n))
	for i := 0; i < int(n); i++ {
		infos = append(infos, AdapterInfo{
			Path: C.GoString(&found[i].path[0]),
			Comm: C.GoString(&found[i].comm[0]),
		})
	}
	return infos, nil
}

func (d *libcecDriver) Open(cfg OpenConfig, table CallbackTable) (Handle, error) {
	var ccfg C.libcec_configuration
	C.libcec_clear_configuration(&ccfg)
	ccfg.clientVersion = C.LIBCEC_VERSION_CURRENT

	name := []byte(cfg.DeviceName)
	if len(name) >= C.LIBCEC_OSD_NAME_SIZE {
		name = name[:C.LIBCEC_OSD_NAME_SIZE-1]
	}
	for i, b := range name {
		ccfg.strDeviceName[i] = C.char(b)
	}

	for i, t := range cfg.DeviceTypes {
		if i >= 5 {
			break
		}
		ccfg.deviceTypes.types[i] = C.cec_device_type(t)
	}
	if cfg.PhysicalAddress != 0 {
		ccfg.iPhysicalAddress = C.uint16_t(cfg.PhysicalAddress)
	}
	if cfg.BaseDevice.IsValid() {
		ccfg.baseDevice = C.cec_logical_address(cfg.BaseDevice)
	}
	if cfg.HDMIPort != 0 {
		ccfg.iHDMIPort = C.uint8_t(cfg.HDMIPort)
	}
	if cfg.VendorID != cec.VendorUnknown {
		ccfg.tvVendor = C.cec_vendor_id(cfg.VendorID)
	}
	ccfg.bActivateSource = boolToUint8(cfg.ActivateSource)
	ccfg.bMonitorOnly = boolToUint8(cfg.MonitorOnly)
	for _, a := range cfg.WakeDevices {
		ccfg.wakeDevices.addresses[int(a)] = 1
	}
	for _, a := range cfg.PowerOffDevices {
		ccfg.powerOffDevices.addresses[int(a)] = 1
	}

	// The callback table is part of the configuration handed to
	// libcec_initialise, so it is installed before the connection can
	// produce its first event.
	token := C.malloc(1)
	ccfg.callbacks = C.bridge_callback_table()
	ccfg.callbackParam = token

	h := &libcecHandle{token: token, table: table}
	handlesMu.Lock()
	handles[token] = h
	handlesMu.Unlock()

	conn := C.libcec_initialise(&ccfg)
	if conn == nil {
		d.forget(h)
		return nil, &OpenError{Code: -1}
	}
	h.conn = conn

	port := cfg.Port
	if port == "" {
		adapters, err := d.Adapters()
		if err != nil {
			C.libcec_destroy(conn)
			d.forget(h)
			return nil, err
		}
		if len(adapters) == 0 {
			C.libcec_destroy(conn)
			d.forget(h)
			return nil, ErrAdapterNotFound
		}
		port = adapters[0].Comm
	}

	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cport := C.CString(port)
	defer C.free(unsafe.Pointer(cport))
	if C.libcec_open(conn, cport, C.uint32_t(timeout.Milliseconds())) == 0 {
		C.libcec_destroy(conn)
		d.forget(h)
		return nil, ErrAdapterNotFound
	}

	return h, nil
}

func (d *libcecDriver) forget(h *libcecHandle) {
	handlesMu.Lock()
	delete(handles, h.token)
	handlesMu.Unlock()
	C.free(h.token)
}

func (d *libcecDriver) Close(handle Handle) {
	h, ok := handle.(*libcecHandle)
	if !ok {
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	// libcec_close blocks until callbacks drain.
	C.libcec_close(h.conn)
	C.libcec_destroy(h.conn)
	d.forget(h)
}

func (d *libcecDriver) Transmit(handle Handle, f cec.Frame) error {
	h, ok := handle.(*libcecHandle)
	if !ok {
		return &TransmitError{Code: -1}
	}

	var cmd C.cec_command
	cmd.initiator = C.cec_logical_address(f.Initiator)
	cmd.destination = C.cec_logical_address(f.Destination)
	cmd.opcode = C.cec_opcode(f.Opcode)
	cmd.opcode_set = boolToInt8(f.OpcodeSet)
	cmd.transmit_timeout = 1000
	for i, b := range f.Parameters {
		cmd.parameters.data[i] = C.uint8_t(b)
	}
	cmd.parameters.size = C.uint8_t(len(f.Parameters))

	if status := C.libcec_transmit(h.conn, &cmd); status == 0 {
		return &TransmitError{Code: int(status)}
	}
	return nil
}

func (d *libcecDriver) LogicalAddresses(handle Handle) ([]cec.LogicalAddress, error) {
	h, ok := handle.(*libcecHandle)
	if !ok {
		return nil, &TransmitError{Code: -1}
	}

	var addrs C.cec_logical_addresses
	C.libcec_get_logical_addresses(h.conn, &addrs)
	return logicalAddressesFromMask(addrs), nil
}

func (d *libcecDriver) Poll(handle Handle, target cec.LogicalAddress) (bool, error) {
	h, ok := handle.(*libcecHandle)
	if !ok {
		return false, &TransmitError{Code: -1}
	}
	return C.libcec_poll_device(h.conn, C.cec_logical_address(target)) != 0, nil
}

// logicalAddressesFromMask converts libcec's primary-plus-mask encoding
// into the addresses actually held.
func logicalAddressesFromMask(addrs C.cec_logical_addresses) []cec.LogicalAddress {
	var out []cec.LogicalAddress
	for i := 0; i < 16; i++ {
		if addrs.addresses[i] != 0 {
			out = append(out, cec.LogicalAddress(i))
		}
	}
	if out == nil && addrs.primary >= 0 && addrs.primary <= 15 {
		out = append(out, cec.LogicalAddress(addrs.primary))
	}
	return out
}

func boolToUint8(b bool) C.uint8_t {
	if b {
		return 1
	}
	return 0
}

func boolToInt8(b bool) C.int8_t {
	if b {
		return 1
	}
	return 0
}
