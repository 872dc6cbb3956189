// Package cliconfig loads the YAML configuration shared by the
// command-line tools and turns it into a connection configuration.
package cliconfig

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/connection"
	"github.com/cec-project/cec-go/pkg/log"
)

// Config is the YAML file structure.
type Config struct {
	// DeviceName is the OSD name announced on the bus.
	DeviceName string `yaml:"device_name"`

	// DeviceType is the announced role: tv, recorder, tuner, playback
	// or audio.
	DeviceType string `yaml:"device_type"`

	// Port pins the adapter serial port; empty auto-detects.
	Port string `yaml:"port"`

	// PhysicalAddress overrides discovery, dotted ("1.0.0.0") or hex.
	PhysicalAddress string `yaml:"physical_address"`

	// HDMIPort is the input on the base device, used when
	// PhysicalAddress is unset.
	HDMIPort uint8 `yaml:"hdmi_port"`

	// Capture configures the binary bus trace.
	Capture CaptureConfig `yaml:"capture"`

	// LogLevel is the operational log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// CaptureConfig configures the CBOR bus trace file.
type CaptureConfig struct {
	// File is the trace path; empty disables capture.
	File string `yaml:"file"`

	// Rotate enables size-based rotation.
	Rotate bool `yaml:"rotate"`

	// MaxSizeMB is the rotation threshold (default 10).
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep (default 3).
	MaxBackups int `yaml:"max_backups"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DeviceName: "cec-go",
		DeviceType: "playback",
		LogLevel:   "info",
	}
}

// Load reads a YAML configuration file. Missing fields keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// deviceTypes maps the YAML names onto bus device types.
var deviceTypes = map[string]cec.DeviceType{
	"tv":       cec.DeviceTV,
	"recorder": cec.DeviceRecordingDevice,
	"tuner":    cec.DeviceTuner,
	"playback": cec.DevicePlaybackDevice,
	"audio":    cec.DeviceAudioSystem,
}

// SlogLevel translates the configured log level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Builder translates the file into a connection builder, leaving room
// for the caller to add handlers before Build.
func (c Config) Builder() (*connection.Builder, func(), error) {
	dt, ok := deviceTypes[c.DeviceType]
	if !ok {
		return nil, nil, fmt.Errorf("unknown device type %q", c.DeviceType)
	}

	b := connection.NewBuilder().
		DeviceName(c.DeviceName).
		DeviceType(dt).
		Port(c.Port).
		HDMIPort(c.HDMIPort)

	if c.PhysicalAddress != "" {
		addr, err := cec.ParsePhysicalAddress(c.PhysicalAddress)
		if err != nil {
			return nil, nil, err
		}
		b.PhysicalAddress(addr)
	}

	cleanup := func() {}
	if c.Capture.File != "" {
		var capture *log.FileLogger
		if c.Capture.Rotate {
			maxSize := c.Capture.MaxSizeMB
			if maxSize <= 0 {
				maxSize = 10
			}
			maxBackups := c.Capture.MaxBackups
			if maxBackups <= 0 {
				maxBackups = 3
			}
			capture = log.NewRotatingFileLogger(c.Capture.File, maxSize, maxBackups)
		} else {
			var err error
			capture, err = log.NewFileLogger(c.Capture.File)
			if err != nil {
				return nil, nil, err
			}
		}
		b.Logger(capture)
		cleanup = func() { capture.Close() }
	}

	return b, cleanup, nil
}
