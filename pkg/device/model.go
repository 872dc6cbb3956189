package device

import (
	"sort"
	"sync"
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
)

// Device is a read-only snapshot of one logical address on the bus.
// Fields start at their Unknown values and fill in as traffic reveals
// them.
type Device struct {
	// Address is the logical address this snapshot describes.
	Address cec.LogicalAddress

	// PhysicalAddress as last reported, or 0xFFFF when unknown.
	PhysicalAddress cec.PhysicalAddress

	// PowerStatus as last reported.
	PowerStatus cec.PowerStatus

	// Vendor as last reported.
	Vendor cec.VendorID

	// OSDName as last reported, empty when unknown.
	OSDName string

	// Version as last reported.
	Version cec.Version

	// ActiveSource is true while this device holds the active source
	// claim.
	ActiveSource bool

	// LastSeen is when traffic from this address was last observed.
	LastSeen time.Time
}

// Model tracks every logical address observed on the bus. It is safe
// for concurrent use; the connection layer writes from its dispatch
// goroutine while callers read from wherever they like.
type Model struct {
	mu      sync.RWMutex
	devices map[cec.LogicalAddress]*Device
	now     func() time.Time
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		devices: make(map[cec.LogicalAddress]*Device),
		now:     time.Now,
	}
}

// get returns the live entry for addr, creating it on first sight.
// Callers hold m.mu.
func (m *Model) get(addr cec.LogicalAddress) *Device {
	d, ok := m.devices[addr]
	if !ok {
		d = &Device{
			Address:         addr,
			PhysicalAddress: cec.PhysicalAddressUnknown,
			PowerStatus:     cec.PowerUnknown,
			Vendor:          cec.VendorUnknown,
			Version:         cec.VersionUnknown,
		}
		m.devices[addr] = d
	}
	return d
}

// Observe records that traffic from addr was seen. The broadcast
// address is not a device and is ignored.
func (m *Model) Observe(addr cec.LogicalAddress) {
	if !addr.IsValid() || addr.IsBroadcast() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(addr).LastSeen = m.now()
}

// ObserveFrame updates the model from a received frame: the initiator
// is marked seen, and any self-describing payload is folded in.
func (m *Model) ObserveFrame(f cec.Frame) {
	if !f.Initiator.IsValid() || f.Initiator.IsBroadcast() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.get(f.Initiator)
	d.LastSeen = m.now()

	if !f.OpcodeSet {
		return
	}

	switch f.Opcode {
	case cec.OpcodeReportPowerStatus:
		if len(f.Parameters) >= 1 {
			d.PowerStatus = cec.PowerStatus(f.Parameters[0])
		}
	case cec.OpcodeDeviceVendorID:
		if len(f.Parameters) >= 3 {
			d.Vendor = cec.VendorIDFromBytes(f.Parameters[:3])
		}
	case cec.OpcodeSetOSDName:
		d.OSDName = string(f.Parameters)
	case cec.OpcodeCECVersion:
		if len(f.Parameters) >= 1 {
			d.Version = cec.Version(f.Parameters[0])
		}
	case cec.OpcodeReportPhysicalAddress:
		if len(f.Parameters) >= 2 {
			d.PhysicalAddress = cec.PhysicalAddressFromBytes(f.Parameters[0], f.Parameters[1])
		}
	case cec.OpcodeActiveSource:
		if len(f.Parameters) >= 2 {
			d.PhysicalAddress = cec.PhysicalAddressFromBytes(f.Parameters[0], f.Parameters[1])
		}
		m.setActiveLocked(f.Initiator)
	case cec.OpcodeStandby:
		d.PowerStatus = cec.PowerStandby
	case cec.OpcodeImageViewOn, cec.OpcodeTextViewOn:
		d.PowerStatus = cec.PowerOn
	}
}

// SetActiveSource marks addr as the active source and clears the flag
// everywhere else. The connection layer calls this for source-activated
// driver events; broadcast means "nobody".
func (m *Model) SetActiveSource(addr cec.LogicalAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setActiveLocked(addr)
}

func (m *Model) setActiveLocked(addr cec.LogicalAddress) {
	for _, d := range m.devices {
		d.ActiveSource = false
	}
	if addr.IsValid() && !addr.IsBroadcast() {
		m.get(addr).ActiveSource = true
	}
}

// Known reports whether addr has ever been observed.
func (m *Model) Known(addr cec.LogicalAddress) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.devices[addr]
	return ok
}

// Get returns a snapshot of addr, or false if it was never observed.
func (m *Model) Get(addr cec.LogicalAddress) (Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[addr]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// ActiveSource returns the device currently holding the active source
// claim, or false if none is known.
func (m *Model) ActiveSource() (Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.ActiveSource {
			return *d, true
		}
	}
	return Device{}, false
}

// Snapshot returns copies of all observed devices, ordered by logical
// address.
func (m *Model) Snapshot() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Reset forgets everything. The connection layer calls this on close so
// a later reconnect starts from an empty bus view.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = make(map[cec.LogicalAddress]*Device)
}
