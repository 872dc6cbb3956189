package connection

import (
	"log/slog"
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/log"
	"github.com/cec-project/cec-go/pkg/native"
)

// MaxDeviceNameLength is the longest OSD name an adapter will announce.
const MaxDeviceNameLength = 13

// MaxDeviceTypes is the most device types one adapter can register.
const MaxDeviceTypes = 5

// Defaults applied by Build when the corresponding field is unset.
const (
	DefaultOpenTimeout  = 10 * time.Second
	DefaultQueryTimeout = 5 * time.Second
	DefaultQueueSize    = 64
)

// Handlers receives bus events. All fields are optional; a nil field
// means the event class is dropped after the model update. Handlers run
// on the dispatch goroutine in bus order.
type Handlers struct {
	// Command is called for every frame received from the bus,
	// including replies already consumed by a pending query.
	Command func(cec.Frame)

	// KeyPress is called on remote key activity. A zero duration is
	// the initial press; a later call with nonzero duration is the
	// release.
	KeyPress func(code cec.UserControlCode, duration time.Duration)

	// SourceActivated is called when a device claims or cedes the
	// active source role.
	SourceActivated func(addr cec.LogicalAddress, activated bool)

	// Alert is called for driver alerts that do not end the
	// connection.
	Alert func(kind cec.AlertKind, detail string)

	// Disconnected is called at most once, when the adapter is lost
	// without Close being called.
	Disconnected func(reason string)
}

// Configuration is a validated, immutable connection configuration.
// Build one with a Builder.
type Configuration struct {
	deviceName      string
	deviceTypes     []cec.DeviceType
	port            string
	physicalAddress cec.PhysicalAddress
	baseDevice      cec.LogicalAddress
	hdmiPort        uint8
	vendorID        cec.VendorID
	activateSource  bool
	monitorOnly     bool
	wakeDevices     []cec.LogicalAddress
	powerOffDevices []cec.LogicalAddress

	openTimeout  time.Duration
	queryTimeout time.Duration
	queueSize    int

	handlers Handlers
	capture  log.Logger
	slog     *slog.Logger
	driver   native.Driver
}

// DeviceName returns the OSD name announced on the bus.
func (c *Configuration) DeviceName() string { return c.deviceName }

// Port returns the adapter port, empty for auto-detect.
func (c *Configuration) Port() string { return c.port }

// QueryTimeout returns the default deadline for queries.
func (c *Configuration) QueryTimeout() time.Duration { return c.queryTimeout }

// Builder assembles a Configuration. Methods return the builder for
// chaining; validation happens once, in Build.
type Builder struct {
	cfg Configuration
}

// NewBuilder returns a Builder with no fields set.
func NewBuilder() *Builder {
	return &Builder{}
}

// DeviceName sets the OSD name announced on the bus. Required, at most
// 13 bytes.
func (b *Builder) DeviceName(name string) *Builder {
	b.cfg.deviceName = name
	return b
}

// DeviceType appends a device type to register. At least one is
// required, at most five are allowed.
func (b *Builder) DeviceType(t cec.DeviceType) *Builder {
	b.cfg.deviceTypes = append(b.cfg.deviceTypes, t)
	return b
}

// Port pins the adapter serial port. Unset means the first adapter
// found.
func (b *Builder) Port(port string) *Builder {
	b.cfg.port = port
	return b
}

// PhysicalAddress forces the physical address instead of letting the
// adapter discover it from the TV.
func (b *Builder) PhysicalAddress(addr cec.PhysicalAddress) *Builder {
	b.cfg.physicalAddress = addr
	return b
}

// BaseDevice sets the device the adapter is plugged into, used with
// HDMIPort to derive the physical address.
func (b *Builder) BaseDevice(addr cec.LogicalAddress) *Builder {
	b.cfg.baseDevice = addr
	return b
}

// HDMIPort sets the HDMI input on the base device, 1-15. Zero leaves
// the port unset and lets the driver pick one.
func (b *Builder) HDMIPort(port uint8) *Builder {
	b.cfg.hdmiPort = port
	return b
}

// VendorID sets the vendor ID announced on the bus. Some TVs only
// enable extra features for their own vendor.
func (b *Builder) VendorID(v cec.VendorID) *Builder {
	b.cfg.vendorID = v
	return b
}

// ActivateSource makes the adapter claim active source on open.
func (b *Builder) ActivateSource(on bool) *Builder {
	b.cfg.activateSource = on
	return b
}

// MonitorOnly opens the adapter without registering a logical address.
// The connection sees all traffic but cannot transmit.
func (b *Builder) MonitorOnly(on bool) *Builder {
	b.cfg.monitorOnly = on
	return b
}

// WakeDevice adds an address to power on when the connection opens.
func (b *Builder) WakeDevice(addr cec.LogicalAddress) *Builder {
	b.cfg.wakeDevices = append(b.cfg.wakeDevices, addr)
	return b
}

// PowerOffDevice adds an address to put in standby when the connection
// closes.
func (b *Builder) PowerOffDevice(addr cec.LogicalAddress) *Builder {
	b.cfg.powerOffDevices = append(b.cfg.powerOffDevices, addr)
	return b
}

// OpenTimeout bounds how long Open waits for the adapter.
func (b *Builder) OpenTimeout(d time.Duration) *Builder {
	b.cfg.openTimeout = d
	return b
}

// QueryTimeout sets the default deadline for queries without a context
// deadline.
func (b *Builder) QueryTimeout(d time.Duration) *Builder {
	b.cfg.queryTimeout = d
	return b
}

// QueueSize sets the event queue capacity. When the queue is full, new
// driver events are dropped and counted, never blocked on.
func (b *Builder) QueueSize(n int) *Builder {
	b.cfg.queueSize = n
	return b
}

// Handlers registers the event handlers.
func (b *Builder) Handlers(h Handlers) *Builder {
	b.cfg.handlers = h
	return b
}

// Logger sets the capture logger for bus traffic and state changes.
func (b *Builder) Logger(l log.Logger) *Builder {
	b.cfg.capture = l
	return b
}

// Slog sets the operational logger. Defaults to slog.Default.
func (b *Builder) Slog(l *slog.Logger) *Builder {
	b.cfg.slog = l
	return b
}

// Driver overrides the native driver. Tests substitute a fake here;
// production code leaves it unset and gets the platform driver.
func (b *Builder) Driver(d native.Driver) *Builder {
	b.cfg.driver = d
	return b
}

// Build validates the builder and returns an immutable Configuration.
func (b *Builder) Build() (*Configuration, error) {
	cfg := b.cfg

	if cfg.deviceName == "" {
		return nil, &ConfigError{Field: "DeviceName", Reason: "required"}
	}
	if len(cfg.deviceName) > MaxDeviceNameLength {
		return nil, &ConfigError{Field: "DeviceName", Reason: "longer than 13 bytes"}
	}
	if len(cfg.deviceTypes) == 0 && !cfg.monitorOnly {
		return nil, &ConfigError{Field: "DeviceType", Reason: "at least one required"}
	}
	if len(cfg.deviceTypes) > MaxDeviceTypes {
		return nil, &ConfigError{Field: "DeviceType", Reason: "more than five"}
	}
	for _, t := range cfg.deviceTypes {
		if !t.IsValid() {
			return nil, &ConfigError{Field: "DeviceType", Reason: "unknown device type"}
		}
	}
	if cfg.hdmiPort > 15 {
		return nil, &ConfigError{Field: "HDMIPort", Reason: "must be 15 or less"}
	}
	if cfg.baseDevice != cec.AddressUnknown && cfg.baseDevice != 0 && !cfg.baseDevice.IsValid() {
		return nil, &ConfigError{Field: "BaseDevice", Reason: "invalid logical address"}
	}
	for _, a := range cfg.wakeDevices {
		if !a.IsValid() || a.IsBroadcast() {
			return nil, &ConfigError{Field: "WakeDevice", Reason: "invalid logical address"}
		}
	}
	for _, a := range cfg.powerOffDevices {
		if !a.IsValid() || a.IsBroadcast() {
			return nil, &ConfigError{Field: "PowerOffDevice", Reason: "invalid logical address"}
		}
	}
	if cfg.queueSize < 0 {
		return nil, &ConfigError{Field: "QueueSize", Reason: "negative"}
	}

	if cfg.openTimeout <= 0 {
		cfg.openTimeout = DefaultOpenTimeout
	}
	if cfg.queryTimeout <= 0 {
		cfg.queryTimeout = DefaultQueryTimeout
	}
	if cfg.queueSize == 0 {
		cfg.queueSize = DefaultQueueSize
	}
	if cfg.capture == nil {
		cfg.capture = log.NoopLogger{}
	}
	if cfg.slog == nil {
		cfg.slog = slog.Default()
	}

	// Copy slices so later builder reuse cannot mutate the result.
	cfg.deviceTypes = append([]cec.DeviceType(nil), cfg.deviceTypes...)
	cfg.wakeDevices = append([]cec.LogicalAddress(nil), cfg.wakeDevices...)
	cfg.powerOffDevices = append([]cec.LogicalAddress(nil), cfg.powerOffDevices...)

	return &cfg, nil
}

// openConfig translates the configuration into the driver's form.
func (c *Configuration) openConfig() native.OpenConfig {
	return native.OpenConfig{
		DeviceName:      c.deviceName,
		DeviceTypes:     c.deviceTypes,
		PhysicalAddress: c.physicalAddress,
		BaseDevice:      c.baseDevice,
		HDMIPort:        c.hdmiPort,
		VendorID:        c.vendorID,
		ActivateSource:  c.activateSource,
		MonitorOnly:     c.monitorOnly,
		WakeDevices:     c.wakeDevices,
		PowerOffDevices: c.powerOffDevices,
		Port:            c.port,
		OpenTimeout:     c.openTimeout,
	}
}
