package native

import (
	"errors"
	"fmt"
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
)

// Driver errors.
var (
	// ErrDriverUnavailable is returned by Default when the binary was
	// built without the libcec build tag.
	ErrDriverUnavailable = errors.New("native CEC driver not compiled in (build with -tags libcec)")

	// ErrAdapterNotFound is returned by Open when no adapter matches
	// the configured port.
	ErrAdapterNotFound = errors.New("no CEC adapter found")

	// ErrPermissionDenied is returned by Open when the adapter device
	// node exists but cannot be opened.
	ErrPermissionDenied = errors.New("permission denied opening CEC adapter")
)

// OpenError reports a vendor-library open failure that is neither a
// missing adapter nor a permission problem.
type OpenError struct {
	Code int
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("native open failed (code %d)", e.Code)
}

// TransmitError reports a synchronous send failure with the vendor
// library's status code.
type TransmitError struct {
	Code int
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("native transmit failed (code %d)", e.Code)
}

// AdapterInfo describes one detected USB adapter.
type AdapterInfo struct {
	// Path is the OS device path, e.g. "/dev/ttyACM0".
	Path string

	// Comm is the communication port name the vendor library wants
	// passed back to Open.
	Comm string

	// VendorID and ProductID identify the USB hardware.
	VendorID  uint16
	ProductID uint16
}

// OpenConfig carries the validated parameters the vendor library
// requires at connection time. Assembled by the connection package's
// configuration builder; this package performs no validation.
type OpenConfig struct {
	// DeviceName is the OSD name announced on the bus (max 13 bytes,
	// the vendor library's fixed buffer).
	DeviceName string

	// DeviceTypes are the roles announced on the bus, in preference
	// order (1 to 5 entries).
	DeviceTypes []cec.DeviceType

	// PhysicalAddress fixes the topology position. Zero means derive
	// it from BaseDevice and HDMIPort, or autodetect.
	PhysicalAddress cec.PhysicalAddress

	// BaseDevice and HDMIPort describe the position as "plugged into
	// port HDMIPort of BaseDevice" when PhysicalAddress is zero.
	BaseDevice cec.LogicalAddress
	HDMIPort   uint8

	// VendorID announced on the bus.
	VendorID cec.VendorID

	// ActivateSource makes the driver claim the active source on open.
	ActivateSource bool

	// MonitorOnly opens the connection in listen-only mode.
	MonitorOnly bool

	// WakeDevices and PowerOffDevices are powered on at open and put
	// in standby at close, respectively.
	WakeDevices     []cec.LogicalAddress
	PowerOffDevices []cec.LogicalAddress

	// Port selects the adapter; empty means autodetect.
	Port string

	// OpenTimeout bounds the vendor library's open call.
	OpenTimeout time.Duration
}

// CallbackTable is the set of callback slots installed into the vendor
// library at open time. Each slot is optional; nil slots are ignored.
//
// All callbacks run on a driver-owned thread and must return promptly:
// the driver may hold an internal lock across the call.
type CallbackTable struct {
	// KeyPress is invoked for remote-control key events addressed to us.
	KeyPress func(code cec.UserControlCode, duration time.Duration)

	// Command is invoked for every decoded frame seen on the bus.
	Command func(frame cec.Frame)

	// LogMessage is invoked for vendor-library log output. at is the
	// driver's own monotonic timestamp.
	LogMessage func(level cec.LogLevel, at time.Duration, text string)

	// ConfigurationChanged is invoked when the driver renegotiates,
	// reporting the logical addresses now held by this connection and
	// the learned physical address.
	ConfigurationChanged func(logical []cec.LogicalAddress, physical cec.PhysicalAddress)

	// Alert is invoked for asynchronous driver faults.
	Alert func(kind cec.AlertKind, param string)

	// SourceActivated is invoked when a bus participant claims or
	// releases the active source.
	SourceActivated func(addr cec.LogicalAddress, activated bool)
}

// Handle is an opaque reference to one open native connection. Only
// the Driver that issued it may interpret it.
type Handle interface{}

// Driver is the raw binding surface of the vendor CEC library.
//
// Open installs the callback table atomically with opening the
// connection: no callback fires before Open is invoked and none fires
// after Close returns (Close blocks until in-flight callbacks drain,
// per the vendor contract). Transmit is synchronous with a
// driver-internal timeout; the vendor library does not support
// concurrent transmits on one handle, so callers serialize.
type Driver interface {
	// Adapters enumerates attached adapters without opening any.
	Adapters() ([]AdapterInfo, error)

	// Open opens a connection on the configured adapter with the given
	// callback table installed.
	Open(cfg OpenConfig, table CallbackTable) (Handle, error)

	// Close releases the handle. Blocks until driver callbacks drain.
	// Closing an already-closed handle is a no-op.
	Close(h Handle)

	// Transmit sends one raw frame and returns once the driver reports
	// a synchronous status. A nil error means the frame was acked (or
	// broadcast); failures carry the native status as *TransmitError.
	Transmit(h Handle, f cec.Frame) error

	// LogicalAddresses reports the addresses negotiated for this
	// connection.
	LogicalAddresses(h Handle) ([]cec.LogicalAddress, error)

	// Poll sends a header-only polling frame to target and reports
	// whether it was acked.
	Poll(h Handle, target cec.LogicalAddress) (bool, error)
}
