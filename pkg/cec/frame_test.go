package cec

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameString(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{
			name:  "ActiveSourceBroadcast",
			frame: NewFrame(AddressPlaybackDevice1, AddressBroadcast, OpcodeActiveSource, 0x10, 0x00),
			want:  "4f:82:10:00",
		},
		{
			name:  "DirectedStandby",
			frame: NewFrame(AddressPlaybackDevice1, AddressTV, OpcodeStandby),
			want:  "40:36",
		},
		{
			name:  "Poll",
			frame: PollFrame(AddressPlaybackDevice1, AddressAudioSystem),
			want:  "45",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrameMarshalRoundTrip(t *testing.T) {
	f := NewFrame(AddressTV, AddressPlaybackDevice1, OpcodeReportPowerStatus, 0x01)

	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x04, 0x90, 0x01}) {
		t.Errorf("unexpected encoding: %x", data)
	}

	got, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame failed: %v", err)
	}
	if got.Initiator != AddressTV || got.Destination != AddressPlaybackDevice1 {
		t.Errorf("addresses lost: %+v", got)
	}
	if !got.OpcodeSet || got.Opcode != OpcodeReportPowerStatus {
		t.Errorf("opcode lost: %+v", got)
	}
	if !bytes.Equal(got.Parameters, []byte{0x01}) {
		t.Errorf("parameters lost: %x", got.Parameters)
	}
}

func TestFrameValidation(t *testing.T) {
	t.Run("OversizedPayload", func(t *testing.T) {
		f := NewFrame(AddressTV, AddressBroadcast, OpcodeVendorCommand, make([]byte, MaxFrameDataSize+1)...)
		if err := f.Validate(); !errors.Is(err, ErrFrameTooLarge) {
			t.Errorf("expected ErrFrameTooLarge, got %v", err)
		}
	})

	t.Run("MaxPayloadOK", func(t *testing.T) {
		f := NewFrame(AddressTV, AddressBroadcast, OpcodeVendorCommand, make([]byte, MaxFrameDataSize)...)
		if err := f.Validate(); err != nil {
			t.Errorf("expected valid frame, got %v", err)
		}
	})

	t.Run("InvalidInitiator", func(t *testing.T) {
		f := NewFrame(AddressUnknown, AddressTV, OpcodeStandby)
		if err := f.Validate(); err == nil {
			t.Error("expected error for unknown initiator")
		}
	})

	t.Run("EmptyUnmarshal", func(t *testing.T) {
		if _, err := UnmarshalFrame(nil); !errors.Is(err, ErrFrameEmpty) {
			t.Errorf("expected ErrFrameEmpty, got %v", err)
		}
	})
}

func TestPollFrameHasNoOpcode(t *testing.T) {
	f := PollFrame(AddressPlaybackDevice1, AddressTV)
	if f.OpcodeSet {
		t.Error("poll frame must not carry an opcode")
	}
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(data) != 1 {
		t.Errorf("poll frame is the header block only, got %d bytes", len(data))
	}
}
