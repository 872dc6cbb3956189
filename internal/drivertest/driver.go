// Package drivertest provides a scriptable in-memory CEC driver for
// tests. It records every transmit, lets tests inject bus activity
// through the callback table, and can be scripted to fail.
package drivertest

import (
	"sync"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/native"
)

// Driver is a fake native.Driver. The zero value is usable: Open
// succeeds, transmit succeeds and is recorded, nothing replies.
type Driver struct {
	mu sync.Mutex

	// OpenErr makes Open fail.
	OpenErr error

	// TransmitErr makes every Transmit fail.
	TransmitErr error

	// Addresses is what LogicalAddresses reports. Defaults to a single
	// playback address.
	Addresses []cec.LogicalAddress

	// Present lists addresses that answer polls.
	Present map[cec.LogicalAddress]bool

	// AutoReply maps a received opcode to a frame injected back when a
	// matching frame is transmitted. Used to script query replies.
	AutoReply map[cec.Opcode]cec.Frame

	table      native.CallbackTable
	opened     bool
	openCalls  int
	closeCalls int
	sent       []cec.Frame
	lastConfig native.OpenConfig
}

type handle struct{ d *Driver }

// Open records the configuration and callback table.
func (d *Driver) Open(cfg native.OpenConfig, table native.CallbackTable) (native.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.openCalls++
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.table = table
	d.opened = true
	d.lastConfig = cfg
	return &handle{d: d}, nil
}

// Close records the call. Like the real driver it returns only after
// no more callbacks will fire, which here is immediate.
func (d *Driver) Close(native.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	d.opened = false
}

// Transmit records the frame and injects any scripted reply.
func (d *Driver) Transmit(_ native.Handle, f cec.Frame) error {
	d.mu.Lock()
	if d.TransmitErr != nil {
		d.mu.Unlock()
		return d.TransmitErr
	}
	d.sent = append(d.sent, f)
	var reply cec.Frame
	var replyOK bool
	if f.OpcodeSet {
		reply, replyOK = d.AutoReply[f.Opcode]
	}
	table := d.table
	d.mu.Unlock()

	if replyOK && table.Command != nil {
		table.Command(reply)
	}
	return nil
}

func (d *Driver) LogicalAddresses(native.Handle) ([]cec.LogicalAddress, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Addresses == nil {
		return []cec.LogicalAddress{cec.AddressPlaybackDevice1}, nil
	}
	return d.Addresses, nil
}

func (d *Driver) Poll(_ native.Handle, target cec.LogicalAddress) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Present[target], nil
}

func (d *Driver) Adapters() ([]native.AdapterInfo, error) {
	return []native.AdapterInfo{{Path: "fake", Comm: "/dev/fake0"}}, nil
}

// InjectFrame delivers a frame as if received from the bus.
func (d *Driver) InjectFrame(f cec.Frame) {
	d.mu.Lock()
	table := d.table
	d.mu.Unlock()
	if table.Command != nil {
		table.Command(f)
	}
}

// InjectKey delivers a key press callback.
func (d *Driver) InjectKey(code cec.UserControlCode) {
	d.mu.Lock()
	table := d.table
	d.mu.Unlock()
	if table.KeyPress != nil {
		table.KeyPress(code, 0)
	}
}

// InjectAlert delivers an alert callback.
func (d *Driver) InjectAlert(kind cec.AlertKind, detail string) {
	d.mu.Lock()
	table := d.table
	d.mu.Unlock()
	if table.Alert != nil {
		table.Alert(kind, detail)
	}
}

// Sent returns a copy of all transmitted frames, in order.
func (d *Driver) Sent() []cec.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]cec.Frame(nil), d.sent...)
}

// OpenCalls returns how many times Open was called.
func (d *Driver) OpenCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openCalls
}

// CloseCalls returns how many times Close was called.
func (d *Driver) CloseCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCalls
}

// LastConfig returns the configuration passed to the most recent Open.
func (d *Driver) LastConfig() native.OpenConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastConfig
}

// Compile-time interface satisfaction check.
var _ native.Driver = (*Driver)(nil)
