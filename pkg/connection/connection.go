package connection

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/device"
	"github.com/cec-project/cec-go/pkg/log"
	"github.com/cec-project/cec-go/pkg/native"
)

// Connection states.
type State int32

const (
	// StateDisconnected indicates the adapter is gone or was never
	// opened.
	StateDisconnected State = iota

	// StateConnecting indicates Open is in progress.
	StateConnecting

	// StateConnected indicates an active adapter connection.
	StateConnected

	// StateClosing indicates Close is in progress.
	StateClosing
)

// String returns the connection state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Per-process adapter registry. Two connections to the same adapter
// corrupt each other's bus state, so Open refuses the second.
var (
	adaptersMu   sync.Mutex
	adaptersOpen = make(map[string]*Connection)
)

// event is one driver callback, queued for the dispatch goroutine.
// Exactly one payload pointer is set.
type event struct {
	frame     *cec.Frame
	key       *keyEvent
	driverMsg *driverMsgEvent
	alert     *alertEvent
	addresses *addressesEvent
	source    *sourceEvent
}

type keyEvent struct {
	code     cec.UserControlCode
	duration time.Duration
}

type driverMsgEvent struct {
	level   cec.LogLevel
	message string
}

type alertEvent struct {
	kind   cec.AlertKind
	detail string
}

type addressesEvent struct {
	logical  []cec.LogicalAddress
	physical cec.PhysicalAddress
}

type sourceEvent struct {
	addr      cec.LogicalAddress
	activated bool
}

// pendingKey correlates a query with its reply. CEC has no message IDs;
// a reply is identified by who sent it and which opcode it carries.
type pendingKey struct {
	initiator cec.LogicalAddress
	opcode    cec.Opcode
}

// Connection is an open adapter connection. Create one with Open and
// release it with Close. All methods are safe for concurrent use.
type Connection struct {
	cfg    *Configuration
	id     string
	driver native.Driver
	model  *device.Model

	state  atomic.Int32
	handle native.Handle

	// Own logical addresses as negotiated by the driver.
	addrMu sync.RWMutex
	addrs  []cec.LogicalAddress
	phys   cec.PhysicalAddress

	// Transmit serialization. The bus is half-duplex; interleaved
	// transmits from two goroutines confuse some TVs.
	sendMu sync.Mutex

	// Event queue feeding the dispatch goroutine.
	queue        chan event
	dropped      atomic.Uint64
	dispatchDone chan struct{}

	// Queries awaiting a reply frame.
	pendingMu sync.Mutex
	pending   map[pendingKey]chan cec.Frame

	closeOnce    sync.Once
	disconnected atomic.Bool

	// True while the dispatch goroutine is inside an event or handler.
	// Close consults it to avoid waiting on its own goroutine when a
	// handler closes the connection.
	dispatching atomic.Bool
}

// Open connects to a CEC adapter described by cfg. The event queue and
// dispatch goroutine are running before the driver is asked to open, so
// no callback fired during initialization is lost.
// Adapters enumerates the CEC adapters the platform driver can see.
func Adapters() ([]native.AdapterInfo, error) {
	drv, err := native.Default()
	if err != nil {
		return nil, err
	}
	return drv.Adapters()
}

func Open(cfg *Configuration) (*Connection, error) {
	drv := cfg.driver
	if drv == nil {
		var err error
		drv, err = native.Default()
		if err != nil {
			return nil, err
		}
	}

	c := &Connection{
		cfg:          cfg,
		id:           uuid.NewString(),
		driver:       drv,
		model:        device.NewModel(),
		queue:        make(chan event, cfg.queueSize),
		dispatchDone: make(chan struct{}),
		pending:      make(map[pendingKey]chan cec.Frame),
		phys:         cec.PhysicalAddressUnknown,
	}
	c.state.Store(int32(StateConnecting))

	adaptersMu.Lock()
	if _, taken := adaptersOpen[cfg.port]; taken {
		adaptersMu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrAdapterBusy, cfg.port)
	}
	adaptersOpen[cfg.port] = c
	adaptersMu.Unlock()

	go c.dispatch()

	handle, err := drv.Open(cfg.openConfig(), c.callbackTable())
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		close(c.queue)
		// Dispatch unregisters the port on exit.
		<-c.dispatchDone
		return nil, fmt.Errorf("open adapter: %w", err)
	}
	c.handle = handle

	if addrs, err := drv.LogicalAddresses(handle); err == nil {
		c.addrMu.Lock()
		c.addrs = addrs
		c.addrMu.Unlock()
	}

	c.state.Store(int32(StateConnected))
	c.logState(StateConnecting, StateConnected, "")
	c.cfg.slog.Info("cec connection open",
		"conn_id", c.id, "port", cfg.port, "name", cfg.deviceName)

	return c, nil
}

// callbackTable builds the driver callback table. All callbacks run on
// the driver thread and only enqueue; the queue is bounded and never
// blocked on.
func (c *Connection) callbackTable() native.CallbackTable {
	return native.CallbackTable{
		Command: func(f cec.Frame) {
			c.enqueue(event{frame: &f})
		},
		KeyPress: func(code cec.UserControlCode, duration time.Duration) {
			c.enqueue(event{key: &keyEvent{code: code, duration: duration}})
		},
		LogMessage: func(level cec.LogLevel, _ time.Duration, msg string) {
			c.enqueue(event{driverMsg: &driverMsgEvent{level: level, message: msg}})
		},
		ConfigurationChanged: func(addrs []cec.LogicalAddress, phys cec.PhysicalAddress) {
			c.enqueue(event{addresses: &addressesEvent{logical: addrs, physical: phys}})
		},
		Alert: func(kind cec.AlertKind, detail string) {
			c.enqueue(event{alert: &alertEvent{kind: kind, detail: detail}})
		},
		SourceActivated: func(addr cec.LogicalAddress, activated bool) {
			c.enqueue(event{source: &sourceEvent{addr: addr, activated: activated}})
		},
	}
}

// enqueue adds a driver event to the queue, dropping it when full.
func (c *Connection) enqueue(ev event) {
	select {
	case c.queue <- ev:
	default:
		c.dropped.Add(1)
	}
}

// dispatch drains the queue in order: model update first, then pending
// query fulfillment, then handlers. It exits when the queue is closed,
// which happens only after the driver handle is closed and can produce
// no more callbacks. Teardown of the pending map, the device model and
// the adapter registry happens here, after the last event, so a Close
// issued from inside a handler does not have to wait for it.
func (c *Connection) dispatch() {
	defer close(c.dispatchDone)
	defer func() {
		c.failPending()
		c.model.Reset()
		c.unregister()
	}()

	for ev := range c.queue {
		c.dispatching.Store(true)
		switch {
		case ev.frame != nil:
			c.dispatchFrame(*ev.frame)
		case ev.key != nil:
			c.dispatchKey(*ev.key)
		case ev.driverMsg != nil:
			c.logCapture(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: c.id,
				Direction:    log.DirectionIn,
				Layer:        log.LayerDriver,
				Category:     log.CategoryDriver,
				DriverMsg:    &log.DriverMsgEvent{Level: ev.driverMsg.level, Message: ev.driverMsg.message},
			})
		case ev.alert != nil:
			c.dispatchAlert(*ev.alert)
		case ev.addresses != nil:
			c.addrMu.Lock()
			c.addrs = ev.addresses.logical
			c.phys = ev.addresses.physical
			c.addrMu.Unlock()
		case ev.source != nil:
			if ev.source.activated {
				c.model.SetActiveSource(ev.source.addr)
			} else {
				c.model.SetActiveSource(cec.AddressUnknown)
			}
			if h := c.cfg.handlers.SourceActivated; h != nil {
				h(ev.source.addr, ev.source.activated)
			}
		}
		c.dispatching.Store(false)
	}
}

func (c *Connection) dispatchFrame(f cec.Frame) {
	c.model.ObserveFrame(f)

	if f.OpcodeSet {
		c.pendingMu.Lock()
		if ch, ok := c.pending[pendingKey{initiator: f.Initiator, opcode: f.Opcode}]; ok {
			// Buffered; the waiter may already have timed out.
			select {
			case ch <- f:
			default:
			}
		}
		c.pendingMu.Unlock()
	}

	op := f.Opcode
	trafficEv := &log.TrafficEvent{
		Initiator:   f.Initiator,
		Destination: f.Destination,
		Parameters:  f.Parameters,
		Acked:       f.Ack,
	}
	if f.OpcodeSet {
		trafficEv.Opcode = &op
	}
	c.logCapture(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionIn,
		Layer:        log.LayerBridge,
		Category:     log.CategoryTraffic,
		Traffic:      trafficEv,
	})

	if h := c.cfg.handlers.Command; h != nil {
		h(f)
	}
}

func (c *Connection) dispatchKey(k keyEvent) {
	c.logCapture(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionIn,
		Layer:        log.LayerBridge,
		Category:     log.CategoryKey,
		Key:          &log.KeyEvent{Code: k.code, Duration: k.duration, Release: k.duration > 0},
	})
	if h := c.cfg.handlers.KeyPress; h != nil {
		h(k.code, k.duration)
	}
}

func (c *Connection) dispatchAlert(a alertEvent) {
	if a.kind == cec.AlertConnectionLost {
		// Synthesize exactly one Disconnected, even if the driver
		// raises the alert repeatedly.
		if c.disconnected.CompareAndSwap(false, true) {
			old := State(c.state.Swap(int32(StateDisconnected)))
			c.logState(old, StateDisconnected, a.detail)
			c.cfg.slog.Warn("cec adapter lost", "conn_id", c.id, "reason", a.detail)
			c.failPending()
			// The port is dead; free the slot so the handler can open
			// a replacement connection immediately.
			c.unregister()
			if h := c.cfg.handlers.Disconnected; h != nil {
				h(a.detail)
			}
		}
		return
	}

	c.logCapture(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerBridge,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerDriver,
			Message: a.kind.String(),
			Context: a.detail,
		},
	})
	if h := c.cfg.handlers.Alert; h != nil {
		h(a.kind, a.detail)
	}
}

// failPending closes all reply channels so blocked queries return
// ErrNotConnected instead of waiting out their timeout.
func (c *Connection) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for k, ch := range c.pending {
		close(ch)
		delete(c.pending, k)
	}
}

// State returns the current connection state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string {
	return c.id
}

// DroppedEvents returns how many driver events were discarded because
// the queue was full.
func (c *Connection) DroppedEvents() uint64 {
	return c.dropped.Load()
}

// Addresses returns the logical addresses held by this connection.
func (c *Connection) Addresses() []cec.LogicalAddress {
	c.addrMu.RLock()
	defer c.addrMu.RUnlock()
	return append([]cec.LogicalAddress(nil), c.addrs...)
}

// PhysicalAddress returns the adapter's own physical address, or
// PhysicalAddressUnknown before the driver reports one.
func (c *Connection) PhysicalAddress() cec.PhysicalAddress {
	c.addrMu.RLock()
	defer c.addrMu.RUnlock()
	if c.phys != cec.PhysicalAddressUnknown {
		return c.phys
	}
	if c.cfg.physicalAddress != 0 {
		return c.cfg.physicalAddress
	}
	return cec.PhysicalAddressUnknown
}

// ownAddress returns the primary logical address used as initiator.
func (c *Connection) ownAddress() cec.LogicalAddress {
	c.addrMu.RLock()
	defer c.addrMu.RUnlock()
	if len(c.addrs) > 0 {
		return c.addrs[0]
	}
	return cec.AddressUnregistered
}

// Device returns the model snapshot for addr.
func (c *Connection) Device(addr cec.LogicalAddress) (device.Device, bool) {
	return c.model.Get(addr)
}

// Devices returns a snapshot of every device observed on the bus.
func (c *Connection) Devices() []device.Device {
	return c.model.Snapshot()
}

// ActiveSource returns the device holding the active source claim.
func (c *Connection) ActiveSource() (device.Device, bool) {
	return c.model.ActiveSource()
}

// Transmit sends a raw frame on the bus. Most callers want the typed
// commands instead. Transmits are serialized; concurrent callers take
// turns.
func (c *Connection) Transmit(f cec.Frame) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	if err := f.Validate(); err != nil {
		return err
	}

	c.sendMu.Lock()
	err := c.driver.Transmit(c.handle, f)
	c.sendMu.Unlock()

	if err != nil {
		c.logCapture(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.id,
			Direction:    log.DirectionOut,
			Layer:        log.LayerDriver,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerDriver,
				Message: err.Error(),
				Context: "transmit",
			},
		})
		return &SendError{Frame: f, Err: err}
	}

	op := f.Opcode
	trafficEv := &log.TrafficEvent{
		Initiator:   f.Initiator,
		Destination: f.Destination,
		Parameters:  f.Parameters,
	}
	if f.OpcodeSet {
		trafficEv.Opcode = &op
	}
	c.logCapture(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionOut,
		Layer:        log.LayerDriver,
		Category:     log.CategoryTraffic,
		Traffic:      trafficEv,
	})
	return nil
}

// Close releases the adapter. It is idempotent: the first call tears
// down, later calls return immediately. Close waits for the dispatch
// goroutine to drain queued events so registered handlers see
// everything that arrived before the driver handle went away. Calling
// Close from inside a handler is allowed: it returns right away and
// the dispatch goroutine finishes the drain on its own.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		old := State(c.state.Swap(int32(StateClosing)))

		if c.handle != nil {
			// Blocks until the driver stops calling back.
			c.driver.Close(c.handle)
		}

		close(c.queue)
		if !c.dispatching.Load() {
			<-c.dispatchDone
		}

		c.state.Store(int32(StateDisconnected))
		if old == StateConnected {
			c.logState(StateClosing, StateDisconnected, "closed")
		}
		c.cfg.slog.Info("cec connection closed", "conn_id", c.id)
	})
	return nil
}

func (c *Connection) unregister() {
	adaptersMu.Lock()
	if adaptersOpen[c.cfg.port] == c {
		delete(adaptersOpen, c.cfg.port)
	}
	adaptersMu.Unlock()
}

func (c *Connection) logCapture(ev log.Event) {
	ev.AdapterPort = c.cfg.port
	c.cfg.capture.Log(ev)
}

func (c *Connection) logState(from, to State, reason string) {
	c.logCapture(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerBridge,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}
