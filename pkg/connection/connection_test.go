package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cec-project/cec-go/internal/drivertest"
	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/native"
)

func testConfig(t *testing.T, drv native.Driver, opts ...func(*Builder)) *Configuration {
	t.Helper()
	b := NewBuilder().
		DeviceName("test").
		DeviceType(cec.DevicePlaybackDevice).
		QueryTimeout(200 * time.Millisecond).
		Driver(drv)
	for _, opt := range opts {
		opt(b)
	}
	cfg, err := b.Build()
	require.NoError(t, err)
	return cfg
}

func openTest(t *testing.T, drv native.Driver, opts ...func(*Builder)) *Connection {
	t.Helper()
	conn, err := Open(testConfig(t, drv, opts...))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// eventDuringOpenDriver fires a frame callback from inside Open,
// like a chatty bus that talks while libcec is still initializing.
type eventDuringOpenDriver struct {
	drivertest.Driver
	frame cec.Frame
}

func (d *eventDuringOpenDriver) Open(cfg native.OpenConfig, table native.CallbackTable) (native.Handle, error) {
	h, err := d.Driver.Open(cfg, table)
	if err == nil && table.Command != nil {
		table.Command(d.frame)
	}
	return h, err
}

func TestOpenReceivesEventsFiredDuringOpen(t *testing.T) {
	got := make(chan cec.Frame, 1)
	drv := &eventDuringOpenDriver{
		frame: cec.NewFrame(cec.AddressTV, cec.AddressBroadcast, cec.OpcodeStandby),
	}

	conn := openTest(t, drv, func(b *Builder) {
		b.Handlers(Handlers{Command: func(f cec.Frame) { got <- f }})
	})
	defer conn.Close()

	select {
	case f := <-got:
		assert.Equal(t, cec.OpcodeStandby, f.Opcode)
	case <-time.After(time.Second):
		t.Fatal("frame fired during open was lost")
	}
}

func TestOpenFailure(t *testing.T) {
	drv := &drivertest.Driver{OpenErr: native.ErrAdapterNotFound}

	_, err := Open(testConfig(t, drv))
	require.Error(t, err)
	assert.ErrorIs(t, err, native.ErrAdapterNotFound)

	// The failed open must release the adapter slot.
	drv2 := &drivertest.Driver{}
	conn, err := Open(testConfig(t, drv2))
	require.NoError(t, err)
	conn.Close()
}

func TestAdapterSingleton(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)

	_, err := Open(testConfig(t, &drivertest.Driver{}))
	assert.ErrorIs(t, err, ErrAdapterBusy)

	require.NoError(t, conn.Close())

	// Closing frees the adapter for a new connection.
	conn2, err := Open(testConfig(t, &drivertest.Driver{}))
	require.NoError(t, err)
	conn2.Close()
}

func TestCloseIdempotent(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	assert.Equal(t, 1, drv.CloseCalls(), "driver Close must run exactly once")
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestOperationsAfterClose(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)
	require.NoError(t, conn.Close())

	assert.ErrorIs(t, conn.PowerOn(cec.AddressTV), ErrNotConnected)
	_, err := conn.PowerStatus(context.Background(), cec.AddressTV)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = conn.Poll(cec.AddressTV)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestEventOrdering(t *testing.T) {
	const n = 50

	var mu sync.Mutex
	var seen []byte
	done := make(chan struct{})

	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.QueueSize(n + 8)
		b.Handlers(Handlers{Command: func(f cec.Frame) {
			mu.Lock()
			seen = append(seen, f.Parameters[0])
			if len(seen) == n {
				close(done)
			}
			mu.Unlock()
		}})
	})
	defer conn.Close()

	for i := 0; i < n; i++ {
		drv.InjectFrame(cec.NewFrame(cec.AddressTV, cec.AddressPlaybackDevice1,
			cec.OpcodeVendorCommand, byte(i)))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		if seen[i] != byte(i) {
			t.Fatalf("event %d delivered out of order: got %d", i, seen[i])
		}
	}
}

func TestQueueOverflowDropsAndCounts(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.QueueSize(1)
		b.Handlers(Handlers{Command: func(cec.Frame) {
			once.Do(func() { close(started) })
			<-block
		}})
	})

	// First frame occupies the handler, second fills the queue, the
	// rest must be dropped without blocking the driver thread.
	drv.InjectFrame(cec.NewFrame(cec.AddressTV, cec.AddressBroadcast, cec.OpcodeStandby))
	<-started
	for i := 0; i < 10; i++ {
		drv.InjectFrame(cec.NewFrame(cec.AddressTV, cec.AddressBroadcast, cec.OpcodeStandby))
	}

	assert.GreaterOrEqual(t, conn.DroppedEvents(), uint64(9))

	close(block)
	conn.Close()
}

func TestPowerStatusQuery(t *testing.T) {
	drv := &drivertest.Driver{
		AutoReply: map[cec.Opcode]cec.Frame{
			cec.OpcodeGiveDevicePowerStatus: cec.NewFrame(
				cec.AddressTV, cec.AddressPlaybackDevice1,
				cec.OpcodeReportPowerStatus, byte(cec.PowerOn)),
		},
	}
	conn := openTest(t, drv)
	defer conn.Close()
	conn.model.Observe(cec.AddressTV)

	status, err := conn.PowerStatus(context.Background(), cec.AddressTV)
	require.NoError(t, err)
	assert.Equal(t, cec.PowerOn, status)

	// The reply also landed in the bus model.
	d, ok := conn.Device(cec.AddressTV)
	require.True(t, ok)
	assert.Equal(t, cec.PowerOn, d.PowerStatus)
}

func TestQueryTimeout(t *testing.T) {
	// No AutoReply: the TV never answers.
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)
	defer conn.Close()
	conn.model.Observe(cec.AddressTV)

	start := time.Now()
	_, err := conn.PowerStatus(context.Background(), cec.AddressTV)
	assert.ErrorIs(t, err, ErrQueryTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	// The request frame itself went out before the wait.
	sent := drv.Sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, cec.OpcodeGiveDevicePowerStatus, sent[len(sent)-1].Opcode)
}

func TestQueryInvalidTargetDoesNotTransmit(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)
	defer conn.Close()

	_, err := conn.PowerStatus(context.Background(), cec.AddressBroadcast)
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Empty(t, drv.Sent(), "invalid target must be rejected before transmit")
}

func TestQueryUnobservedTargetDoesNotTransmit(t *testing.T) {
	drv := &drivertest.Driver{Present: map[cec.LogicalAddress]bool{cec.AddressTuner1: true}}
	conn := openTest(t, drv)
	defer conn.Close()

	// Never seen on the bus: rejected before the driver is touched.
	_, err := conn.PowerStatus(context.Background(), cec.AddressTuner1)
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Empty(t, drv.Sent())

	// A successful poll marks the address observed and opens the gate.
	present, err := conn.Poll(cec.AddressTuner1)
	require.NoError(t, err)
	require.True(t, present)

	_, err = conn.PowerStatus(context.Background(), cec.AddressTuner1)
	assert.NotErrorIs(t, err, ErrUnknownTarget)
	assert.NotEmpty(t, drv.Sent())
}

func TestQueryInFlightCollision(t *testing.T) {
	// The first query blocks forever; the second identical one must be
	// refused rather than race for the same reply.
	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.QueryTimeout(time.Second)
	})
	defer conn.Close()
	conn.model.Observe(cec.AddressTV)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.PowerStatus(context.Background(), cec.AddressTV)
		errCh <- err
	}()

	// Wait for the first request to hit the wire.
	require.Eventually(t, func() bool { return len(drv.Sent()) > 0 },
		time.Second, 5*time.Millisecond)

	_, err := conn.PowerStatus(context.Background(), cec.AddressTV)
	assert.ErrorIs(t, err, ErrQueryInFlight)

	assert.ErrorIs(t, <-errCh, ErrQueryTimeout)
}

func TestTransmitFailure(t *testing.T) {
	drv := &drivertest.Driver{TransmitErr: &native.TransmitError{Code: 3}}
	conn := openTest(t, drv)
	defer conn.Close()

	err := conn.Standby(cec.AddressTV)
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, cec.OpcodeStandby, sendErr.Frame.Opcode)
}

func TestSetActiveSource(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.PhysicalAddress(0x1000)
	})
	defer conn.Close()

	require.NoError(t, conn.SetActiveSource())

	sent := drv.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, cec.OpcodeImageViewOn, sent[0].Opcode)
	assert.Equal(t, cec.AddressTV, sent[0].Destination)
	assert.Equal(t, cec.OpcodeActiveSource, sent[1].Opcode)
	assert.Equal(t, cec.AddressBroadcast, sent[1].Destination)
	assert.Equal(t, []byte{0x10, 0x00}, sent[1].Parameters)
}

func TestVolumeTapSendsPressAndRelease(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)
	defer conn.Close()

	require.NoError(t, conn.VolumeUp())

	sent := drv.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, cec.OpcodeUserControlPressed, sent[0].Opcode)
	assert.Equal(t, []byte{byte(cec.UserControlVolumeUp)}, sent[0].Parameters)
	assert.Equal(t, cec.AddressAudioSystem, sent[0].Destination)
	assert.Equal(t, cec.OpcodeUserControlRelease, sent[1].Opcode)
}

func TestMuteAudioUsesMuteFunction(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv)
	defer conn.Close()

	require.NoError(t, conn.MuteAudio())
	require.NoError(t, conn.UnmuteAudio())

	sent := drv.Sent()
	require.Len(t, sent, 4)
	assert.Equal(t, []byte{byte(cec.UserControlMuteFunction)}, sent[0].Parameters)
	assert.Equal(t, []byte{byte(cec.UserControlRestoreVolumeFunction)}, sent[2].Parameters)
}

func TestSetSystemAudioMode(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.PhysicalAddress(0x1000)
	})
	defer conn.Close()

	require.NoError(t, conn.SetSystemAudioMode(true))
	require.NoError(t, conn.SetSystemAudioMode(false))

	sent := drv.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, cec.OpcodeSystemAudioModeRequest, sent[0].Opcode)
	assert.Equal(t, cec.AddressAudioSystem, sent[0].Destination)
	assert.Equal(t, []byte{0x10, 0x00}, sent[0].Parameters)
	assert.Empty(t, sent[1].Parameters, "off request carries no address")
}

func TestKeyPressHandler(t *testing.T) {
	got := make(chan cec.UserControlCode, 1)

	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.Handlers(Handlers{KeyPress: func(code cec.UserControlCode, _ time.Duration) {
			got <- code
		}})
	})
	defer conn.Close()

	drv.InjectKey(cec.UserControlPlay)

	select {
	case code := <-got:
		assert.Equal(t, cec.UserControlPlay, code)
	case <-time.After(time.Second):
		t.Fatal("key press not delivered")
	}
}

func TestDisconnectedFiresOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fired := make(chan struct{}, 2)

	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.Handlers(Handlers{Disconnected: func(string) {
			mu.Lock()
			calls++
			mu.Unlock()
			fired <- struct{}{}
		}})
	})

	drv.InjectAlert(cec.AlertConnectionLost, "usb gone")
	drv.InjectAlert(cec.AlertConnectionLost, "usb gone")

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("disconnected handler not called")
	}
	// Give a second (wrong) invocation a chance to land.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, calls, "disconnected must fire exactly once")
	mu.Unlock()

	assert.Equal(t, StateDisconnected, conn.State())
	assert.ErrorIs(t, conn.Standby(cec.AddressTV), ErrNotConnected)

	// Close after adapter loss is still clean.
	require.NoError(t, conn.Close())
}

func TestCloseFromDisconnectedHandler(t *testing.T) {
	drv := &drivertest.Driver{}
	done := make(chan error, 1)

	var conn *Connection
	conn = openTest(t, drv, func(b *Builder) {
		b.Handlers(Handlers{Disconnected: func(string) {
			// Tear down from inside the handler, the obvious place
			// to start recovery after losing the adapter.
			done <- conn.Close()
		}})
	})

	drv.InjectAlert(cec.AlertConnectionLost, "usb gone")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close called from a handler did not return")
	}

	// The dispatch goroutine finishes the drain on its own.
	select {
	case <-conn.dispatchDone:
	case <-time.After(time.Second):
		t.Fatal("dispatch goroutine did not exit")
	}
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestAdapterFreeAfterConnectionLost(t *testing.T) {
	fired := make(chan struct{})
	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.Handlers(Handlers{Disconnected: func(string) { close(fired) }})
	})

	drv.InjectAlert(cec.AlertConnectionLost, "usb gone")
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("disconnected handler not called")
	}

	// The dead connection no longer holds the port, so a replacement
	// opens without an explicit Close first.
	conn2, err := Open(testConfig(t, &drivertest.Driver{}))
	require.NoError(t, err)
	require.NoError(t, conn2.Close())

	require.NoError(t, conn.Close())
}

func TestPoll(t *testing.T) {
	drv := &drivertest.Driver{Present: map[cec.LogicalAddress]bool{cec.AddressAudioSystem: true}}
	conn := openTest(t, drv)
	defer conn.Close()

	present, err := conn.Poll(cec.AddressAudioSystem)
	require.NoError(t, err)
	assert.True(t, present)
	assert.True(t, conn.model.Known(cec.AddressAudioSystem))

	present, err = conn.Poll(cec.AddressTuner1)
	require.NoError(t, err)
	assert.False(t, present)

	_, err = conn.Poll(cec.AddressBroadcast)
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestModelTracksBusTraffic(t *testing.T) {
	seen := make(chan struct{}, 4)

	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.Handlers(Handlers{Command: func(cec.Frame) { seen <- struct{}{} }})
	})
	defer conn.Close()

	drv.InjectFrame(cec.NewFrame(cec.AddressAudioSystem, cec.AddressBroadcast,
		cec.OpcodeDeviceVendorID, 0x00, 0x80, 0x45))
	drv.InjectFrame(cec.NewFrame(cec.AddressAudioSystem, cec.AddressPlaybackDevice1,
		cec.OpcodeSetOSDName, 'A', 'V', 'R'))

	for i := 0; i < 2; i++ {
		select {
		case <-seen:
		case <-time.After(time.Second):
			t.Fatal("frame not dispatched")
		}
	}

	d, ok := conn.Device(cec.AddressAudioSystem)
	require.True(t, ok)
	assert.Equal(t, cec.VendorPanasonic, d.Vendor)
	assert.Equal(t, "AVR", d.OSDName)
}

func TestQueryAfterAdapterLossFailsFast(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.QueryTimeout(5 * time.Second)
	})
	defer conn.Close()
	conn.model.Observe(cec.AddressTV)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.PowerStatus(context.Background(), cec.AddressTV)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return len(drv.Sent()) > 0 },
		time.Second, 5*time.Millisecond)

	drv.InjectAlert(cec.AlertConnectionLost, "unplugged")

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(2 * time.Second):
		t.Fatal("query did not fail after adapter loss")
	}
}

func TestQueryContextCancel(t *testing.T) {
	drv := &drivertest.Driver{}
	conn := openTest(t, drv, func(b *Builder) {
		b.QueryTimeout(5 * time.Second)
	})
	defer conn.Close()
	conn.model.Observe(cec.AddressTV)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := conn.PowerStatus(ctx, cec.AddressTV)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return len(drv.Sent()) > 0 },
		time.Second, 5*time.Millisecond)

	cancel()
	assert.True(t, errors.Is(<-errCh, context.Canceled))
}
