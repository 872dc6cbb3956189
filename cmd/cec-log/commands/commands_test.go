package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/log"
)

func writeCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bus.clog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create capture file: %v", err)
	}
	for _, event := range events {
		logger.Log(event)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close capture file: %v", err)
	}
	return path
}

func trafficEvent(ts time.Time, dir log.Direction, initiator cec.LogicalAddress, op cec.Opcode, params ...byte) log.Event {
	return log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    dir,
		Layer:        log.LayerBridge,
		Category:     log.CategoryTraffic,
		AdapterPort:  "/dev/ttyACM0",
		Traffic: &log.TrafficEvent{
			Initiator:   initiator,
			Destination: cec.AddressBroadcast,
			Opcode:      &op,
			Parameters:  params,
			Acked:       true,
		},
	}
}

func TestFormatTrafficEvent(t *testing.T) {
	ts := time.Date(2026, 8, 30, 10, 15, 32, 123456000, time.UTC)
	event := trafficEvent(ts, log.DirectionIn, cec.AddressTV, cec.OpcodeActiveSource, 0x10, 0x00)

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-08-30T10:15:32.123456Z") {
		t.Errorf("expected timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "RX") {
		t.Errorf("expected RX direction, got: %s", output)
	}
	if !strings.Contains(output, "ACTIVE_SOURCE") {
		t.Errorf("expected opcode name, got: %s", output)
	}
	if !strings.Contains(output, "Params: 1000") {
		t.Errorf("expected parameter hex, got: %s", output)
	}
}

func TestFormatPollEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "abc12345",
		Direction:    log.DirectionOut,
		Layer:        log.LayerBridge,
		Category:     log.CategoryTraffic,
		Traffic: &log.TrafficEvent{
			Initiator:   cec.AddressPlaybackDevice1,
			Destination: cec.AddressAudioSystem,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	if !strings.Contains(buf.String(), "<poll>") {
		t.Errorf("expected poll marker, got: %s", buf.String())
	}
}

func TestFormatKeyEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "abc12345",
		Direction:    log.DirectionIn,
		Layer:        log.LayerBridge,
		Category:     log.CategoryKey,
		Key: &log.KeyEvent{
			Code:     cec.UserControlVolumeUp,
			Duration: 150 * time.Millisecond,
			Release:  true,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()
	if !strings.Contains(output, "released") {
		t.Errorf("expected release, got: %s", output)
	}
	if !strings.Contains(output, "150ms") {
		t.Errorf("expected duration, got: %s", output)
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "abc12345",
		Layer:        log.LayerBridge,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: "CONNECTED",
			NewState: "DISCONNECTED",
			Reason:   "connection lost",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()
	if !strings.Contains(output, "CONNECTED -> DISCONNECTED") {
		t.Errorf("expected state transition, got: %s", output)
	}
	if !strings.Contains(output, "connection lost") {
		t.Errorf("expected reason, got: %s", output)
	}
}

func TestViewFiltersByDirection(t *testing.T) {
	ts := time.Now()
	path := writeCapture(t, []log.Event{
		trafficEvent(ts, log.DirectionIn, cec.AddressTV, cec.OpcodeStandby),
		trafficEvent(ts, log.DirectionOut, cec.AddressPlaybackDevice1, cec.OpcodeImageViewOn),
	})

	var buf bytes.Buffer
	if err := View([]string{"-direction", "tx", path}, &buf); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	output := buf.String()
	if strings.Contains(output, "STANDBY") {
		t.Errorf("expected received frame filtered out, got: %s", output)
	}
	if !strings.Contains(output, "IMAGE_VIEW_ON") {
		t.Errorf("expected transmitted frame, got: %s", output)
	}
}

func TestExportJSONL(t *testing.T) {
	ts := time.Now()
	path := writeCapture(t, []log.Event{
		trafficEvent(ts, log.DirectionIn, cec.AddressTV, cec.OpcodeStandby),
		trafficEvent(ts, log.DirectionOut, cec.AddressPlaybackDevice1, cec.OpcodeImageViewOn),
	})

	var buf bytes.Buffer
	if err := Export([]string{path}, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}
	for _, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Errorf("invalid JSON line %q: %v", line, err)
		}
	}
}

func TestExportCSV(t *testing.T) {
	path := writeCapture(t, []log.Event{
		trafficEvent(time.Now(), log.DirectionIn, cec.AddressTV, cec.OpcodeActiveSource, 0x10, 0x00),
	})

	var buf bytes.Buffer
	if err := Export([]string{"-format", "csv", path}, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "timestamp,connection_id") {
		t.Errorf("expected CSV header, got: %s", output)
	}
	if !strings.Contains(output, "1000") {
		t.Errorf("expected parameter hex column, got: %s", output)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := writeCapture(t, nil)
	var buf bytes.Buffer
	err := Export([]string{"-format", "xml", path}, &buf)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got: %v", err)
	}
}

func TestFilterFileWritesCapture(t *testing.T) {
	ts := time.Now()
	path := writeCapture(t, []log.Event{
		trafficEvent(ts, log.DirectionIn, cec.AddressTV, cec.OpcodeStandby),
		trafficEvent(ts, log.DirectionIn, cec.AddressAudioSystem, cec.OpcodeReportPowerStatus, 0x00),
		trafficEvent(ts, log.DirectionOut, cec.AddressPlaybackDevice1, cec.OpcodeImageViewOn),
	})
	output := filepath.Join(t.TempDir(), "filtered.clog")

	if err := FilterFile([]string{"-initiator", "0", "-o", output, path}); err != nil {
		t.Fatalf("filter failed: %v", err)
	}

	reader, err := log.NewReader(output)
	if err != nil {
		t.Fatalf("failed to open filtered file: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		if event.Traffic == nil || event.Traffic.Initiator != cec.AddressTV {
			t.Errorf("unexpected event in filtered output: %+v", event)
		}
		count++
	}
	if count != 1 {
		t.Errorf("expected 1 filtered event, got %d", count)
	}
}

func TestFilterFileRequiresOutput(t *testing.T) {
	err := FilterFile([]string{"in.clog"})
	if err == nil || !strings.Contains(err.Error(), "output file required") {
		t.Errorf("expected output required error, got: %v", err)
	}
}

func TestStatsAggregates(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	events := []log.Event{
		trafficEvent(base, log.DirectionIn, cec.AddressTV, cec.OpcodeStandby),
		trafficEvent(base.Add(time.Second), log.DirectionIn, cec.AddressTV, cec.OpcodeStandby),
		trafficEvent(base.Add(2*time.Second), log.DirectionOut, cec.AddressPlaybackDevice1, cec.OpcodeImageViewOn),
		{
			Timestamp:    base.Add(3 * time.Second),
			ConnectionID: "abc12345",
			Layer:        log.LayerDriver,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerDriver,
				Message: "transmit failed",
			},
		},
	}

	stats := &StatsData{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		FramesByOpcode:    make(map[cec.Opcode]int),
		FramesByInitiator: make(map[cec.LogicalAddress]int),
		Connections:       make(map[string]*ConnectionStats),
	}
	for _, event := range events {
		stats.observe(event)
	}

	if stats.TotalEvents != 4 {
		t.Errorf("expected 4 events, got %d", stats.TotalEvents)
	}
	if stats.EventsByCategory[log.CategoryTraffic] != 3 {
		t.Errorf("expected 3 traffic events, got %d", stats.EventsByCategory[log.CategoryTraffic])
	}
	if stats.FramesByOpcode[cec.OpcodeStandby] != 2 {
		t.Errorf("expected 2 standby frames, got %d", stats.FramesByOpcode[cec.OpcodeStandby])
	}
	if stats.FramesByInitiator[cec.AddressTV] != 2 {
		t.Errorf("expected 2 frames from TV, got %d", stats.FramesByInitiator[cec.AddressTV])
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
	if got := stats.TimeRange.End.Sub(stats.TimeRange.Start); got != 3*time.Second {
		t.Errorf("expected 3s time range, got %s", got)
	}
	if len(stats.Connections) != 2 {
		t.Errorf("expected 2 connections, got %d", len(stats.Connections))
	}
}

func TestStatsCommandOutput(t *testing.T) {
	path := writeCapture(t, []log.Event{
		trafficEvent(time.Now(), log.DirectionIn, cec.AddressTV, cec.OpcodeStandby),
	})

	var buf bytes.Buffer
	if err := Stats([]string{path}, &buf); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Total Events: 1") {
		t.Errorf("expected total count, got: %s", output)
	}
	if !strings.Contains(output, "STANDBY") {
		t.Errorf("expected opcode histogram, got: %s", output)
	}
	if !strings.Contains(output, "/dev/ttyACM0") {
		t.Errorf("expected adapter port, got: %s", output)
	}
}

func TestBuildFilterRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		flags filterFlags
	}{
		{"direction", filterFlags{direction: "sideways"}},
		{"layer", filterFlags{layer: "kernel"}},
		{"category", filterFlags{category: "misc"}},
		{"initiator", filterFlags{initiator: "16"}},
		{"opcode", filterFlags{opcode: "xyz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.flags.build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
