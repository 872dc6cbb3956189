package connection

import (
	"context"
	"errors"

	"github.com/cec-project/cec-go/pkg/cec"
)

// directedTarget validates a target for operations that must name a
// single device.
func directedTarget(target cec.LogicalAddress) error {
	if !target.IsValid() || target.IsBroadcast() {
		return ErrUnknownTarget
	}
	return nil
}

// PowerOn wakes the target device. Broadcast wakes everything that
// honors IMAGE_VIEW_ON.
func (c *Connection) PowerOn(target cec.LogicalAddress) error {
	if !target.IsValid() {
		return ErrUnknownTarget
	}
	return c.Transmit(cec.NewFrame(c.ownAddress(), target, cec.OpcodeImageViewOn))
}

// Standby puts the target device in standby. Broadcast puts the whole
// bus in standby.
func (c *Connection) Standby(target cec.LogicalAddress) error {
	if !target.IsValid() {
		return ErrUnknownTarget
	}
	return c.Transmit(cec.NewFrame(c.ownAddress(), target, cec.OpcodeStandby))
}

// SetActiveSource claims the active source role for this connection's
// physical address, switching the TV to the adapter's input.
func (c *Connection) SetActiveSource() error {
	phys := c.PhysicalAddress()
	if phys == cec.PhysicalAddressUnknown {
		return errors.New("physical address not known yet")
	}

	// Wake the TV first; a sleeping TV ignores the source claim.
	if err := c.Transmit(cec.NewFrame(c.ownAddress(), cec.AddressTV, cec.OpcodeImageViewOn)); err != nil {
		return err
	}

	f := cec.NewFrame(c.ownAddress(), cec.AddressBroadcast, cec.OpcodeActiveSource)
	b := phys.Bytes()
	f.Parameters = b[:]
	return c.Transmit(f)
}

// SetInactiveSource cedes the active source role back to the TV.
func (c *Connection) SetInactiveSource() error {
	phys := c.PhysicalAddress()
	if phys == cec.PhysicalAddressUnknown {
		return errors.New("physical address not known yet")
	}
	f := cec.NewFrame(c.ownAddress(), cec.AddressTV, cec.OpcodeInactiveSource)
	b := phys.Bytes()
	f.Parameters = b[:]
	return c.Transmit(f)
}

// SendKeypress sends a remote-control key press to the target. Pair it
// with SendKeyRelease; TVs repeat a key until released.
func (c *Connection) SendKeypress(target cec.LogicalAddress, code cec.UserControlCode) error {
	if err := directedTarget(target); err != nil {
		return err
	}
	f := cec.NewFrame(c.ownAddress(), target, cec.OpcodeUserControlPressed)
	f.Parameters = []byte{byte(code)}
	return c.Transmit(f)
}

// SendKeyRelease ends the key press started by SendKeypress.
func (c *Connection) SendKeyRelease(target cec.LogicalAddress) error {
	if err := directedTarget(target); err != nil {
		return err
	}
	return c.Transmit(cec.NewFrame(c.ownAddress(), target, cec.OpcodeUserControlRelease))
}

// tapKey sends a press-release pair to the audio system.
func (c *Connection) tapKey(code cec.UserControlCode) error {
	if err := c.SendKeypress(cec.AddressAudioSystem, code); err != nil {
		return err
	}
	return c.SendKeyRelease(cec.AddressAudioSystem)
}

// VolumeUp raises the audio system volume one step.
func (c *Connection) VolumeUp() error {
	return c.tapKey(cec.UserControlVolumeUp)
}

// VolumeDown lowers the audio system volume one step.
func (c *Connection) VolumeDown() error {
	return c.tapKey(cec.UserControlVolumeDown)
}

// ToggleMute toggles the audio system mute state.
func (c *Connection) ToggleMute() error {
	return c.tapKey(cec.UserControlMute)
}

// MuteAudio mutes the audio system regardless of its current state.
func (c *Connection) MuteAudio() error {
	return c.tapKey(cec.UserControlMuteFunction)
}

// UnmuteAudio restores the volume muted by MuteAudio.
func (c *Connection) UnmuteAudio() error {
	return c.tapKey(cec.UserControlRestoreVolumeFunction)
}

// SetSystemAudioMode asks the audio system to take over audio output
// for this source (on), or to give it back to the TV (off).
func (c *Connection) SetSystemAudioMode(on bool) error {
	f := cec.NewFrame(c.ownAddress(), cec.AddressAudioSystem, cec.OpcodeSystemAudioModeRequest)
	if on {
		phys := c.PhysicalAddress()
		if phys == cec.PhysicalAddressUnknown {
			return errors.New("physical address not known yet")
		}
		b := phys.Bytes()
		f.Parameters = b[:]
	}
	return c.Transmit(f)
}

// Poll checks whether a device answers at the target address. A false
// result with nil error means the address is free.
func (c *Connection) Poll(target cec.LogicalAddress) (bool, error) {
	if c.State() != StateConnected {
		return false, ErrNotConnected
	}
	if err := directedTarget(target); err != nil {
		return false, err
	}
	present, err := c.driver.Poll(c.handle, target)
	if err != nil {
		return false, err
	}
	if present {
		c.model.Observe(target)
	}
	return present, nil
}

// query transmits request and waits for a frame from target carrying
// replyOp. The reply is also delivered to the Command handler and the
// bus model; consuming it here does not hide it.
func (c *Connection) query(ctx context.Context, target cec.LogicalAddress, request cec.Frame, replyOp cec.Opcode) (cec.Frame, error) {
	if c.State() != StateConnected {
		return cec.Frame{}, ErrNotConnected
	}
	if err := directedTarget(target); err != nil {
		return cec.Frame{}, err
	}
	// Queries wait for an acknowledged reply, so they require a target
	// that has actually been seen on the bus. Poll first.
	if !c.model.Known(target) {
		return cec.Frame{}, ErrUnknownTarget
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.queryTimeout)
		defer cancel()
	}

	key := pendingKey{initiator: target, opcode: replyOp}
	ch := make(chan cec.Frame, 1)

	c.pendingMu.Lock()
	if _, exists := c.pending[key]; exists {
		c.pendingMu.Unlock()
		return cec.Frame{}, ErrQueryInFlight
	}
	c.pending[key] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
	}()

	if err := c.Transmit(request); err != nil {
		return cec.Frame{}, err
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return cec.Frame{}, ErrQueryTimeout
		}
		return cec.Frame{}, ctx.Err()
	case reply, ok := <-ch:
		if !ok {
			// failPending closed the channel: the adapter is gone.
			return cec.Frame{}, ErrNotConnected
		}
		return reply, nil
	}
}

// PowerStatus asks the target for its power status.
func (c *Connection) PowerStatus(ctx context.Context, target cec.LogicalAddress) (cec.PowerStatus, error) {
	reply, err := c.query(ctx, target,
		cec.NewFrame(c.ownAddress(), target, cec.OpcodeGiveDevicePowerStatus),
		cec.OpcodeReportPowerStatus)
	if err != nil {
		return cec.PowerUnknown, err
	}
	if len(reply.Parameters) < 1 {
		return cec.PowerUnknown, nil
	}
	return cec.PowerStatus(reply.Parameters[0]), nil
}

// VendorID asks the target for its vendor ID.
func (c *Connection) VendorID(ctx context.Context, target cec.LogicalAddress) (cec.VendorID, error) {
	reply, err := c.query(ctx, target,
		cec.NewFrame(c.ownAddress(), target, cec.OpcodeGiveDeviceVendorID),
		cec.OpcodeDeviceVendorID)
	if err != nil {
		return cec.VendorUnknown, err
	}
	if len(reply.Parameters) < 3 {
		return cec.VendorUnknown, nil
	}
	return cec.VendorIDFromBytes(reply.Parameters[:3]), nil
}

// Version asks the target which CEC version it implements.
func (c *Connection) Version(ctx context.Context, target cec.LogicalAddress) (cec.Version, error) {
	reply, err := c.query(ctx, target,
		cec.NewFrame(c.ownAddress(), target, cec.OpcodeGetCECVersion),
		cec.OpcodeCECVersion)
	if err != nil {
		return cec.VersionUnknown, err
	}
	if len(reply.Parameters) < 1 {
		return cec.VersionUnknown, nil
	}
	return cec.Version(reply.Parameters[0]), nil
}

// OSDName asks the target for its on-screen display name.
func (c *Connection) OSDName(ctx context.Context, target cec.LogicalAddress) (string, error) {
	reply, err := c.query(ctx, target,
		cec.NewFrame(c.ownAddress(), target, cec.OpcodeGiveOSDName),
		cec.OpcodeSetOSDName)
	if err != nil {
		return "", err
	}
	return string(reply.Parameters), nil
}

// PhysicalAddressOf asks the target for its physical address.
func (c *Connection) PhysicalAddressOf(ctx context.Context, target cec.LogicalAddress) (cec.PhysicalAddress, error) {
	reply, err := c.query(ctx, target,
		cec.NewFrame(c.ownAddress(), target, cec.OpcodeGivePhysicalAddress),
		cec.OpcodeReportPhysicalAddress)
	if err != nil {
		return cec.PhysicalAddressUnknown, err
	}
	if len(reply.Parameters) < 2 {
		return cec.PhysicalAddressUnknown, nil
	}
	return cec.PhysicalAddressFromBytes(reply.Parameters[0], reply.Parameters[1]), nil
}
