package connection

import (
	"errors"
	"testing"
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
)

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		field string
	}{
		{
			name:  "MissingName",
			build: func() *Builder { return NewBuilder().DeviceType(cec.DevicePlaybackDevice) },
			field: "DeviceName",
		},
		{
			name: "NameTooLong",
			build: func() *Builder {
				return NewBuilder().DeviceName("fourteen chars").DeviceType(cec.DevicePlaybackDevice)
			},
			field: "DeviceName",
		},
		{
			name:  "MissingDeviceType",
			build: func() *Builder { return NewBuilder().DeviceName("test") },
			field: "DeviceType",
		},
		{
			name: "InvalidDeviceType",
			build: func() *Builder {
				return NewBuilder().DeviceName("test").DeviceType(cec.DeviceType(42))
			},
			field: "DeviceType",
		},
		{
			name: "TooManyDeviceTypes",
			build: func() *Builder {
				b := NewBuilder().DeviceName("test")
				for i := 0; i < 6; i++ {
					b.DeviceType(cec.DevicePlaybackDevice)
				}
				return b
			},
			field: "DeviceType",
		},
		{
			name: "HDMIPortOutOfRange",
			build: func() *Builder {
				return NewBuilder().DeviceName("test").
					DeviceType(cec.DevicePlaybackDevice).
					HDMIPort(16)
			},
			field: "HDMIPort",
		},
		{
			name: "BroadcastWakeDevice",
			build: func() *Builder {
				return NewBuilder().DeviceName("test").
					DeviceType(cec.DevicePlaybackDevice).
					WakeDevice(cec.AddressBroadcast)
			},
			field: "WakeDevice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestBuilderDefaults(t *testing.T) {
	cfg, err := NewBuilder().
		DeviceName("test").
		DeviceType(cec.DevicePlaybackDevice).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if cfg.queryTimeout != DefaultQueryTimeout {
		t.Errorf("expected default query timeout, got %v", cfg.queryTimeout)
	}
	if cfg.openTimeout != DefaultOpenTimeout {
		t.Errorf("expected default open timeout, got %v", cfg.openTimeout)
	}
	if cfg.queueSize != DefaultQueueSize {
		t.Errorf("expected default queue size, got %d", cfg.queueSize)
	}
	if cfg.capture == nil {
		t.Error("expected noop capture logger")
	}
	if cfg.slog == nil {
		t.Error("expected default slog logger")
	}
	if cfg.hdmiPort != 0 {
		t.Errorf("expected HDMI port unset, got %d", cfg.hdmiPort)
	}
}

func TestBuilderMonitorOnlyNeedsNoType(t *testing.T) {
	cfg, err := NewBuilder().
		DeviceName("sniffer").
		MonitorOnly(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !cfg.monitorOnly {
		t.Error("expected monitor-only set")
	}
}

func TestBuilderImmutableResult(t *testing.T) {
	b := NewBuilder().
		DeviceName("test").
		DeviceType(cec.DevicePlaybackDevice).
		QueryTimeout(2 * time.Second)

	cfg1, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Reusing the builder must not reach back into the first result.
	b.DeviceType(cec.DeviceAudioSystem)
	if len(cfg1.deviceTypes) != 1 {
		t.Errorf("expected first configuration untouched, got %d types", len(cfg1.deviceTypes))
	}
}
