package commands

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cec-project/cec-go/pkg/log"
)

// View prints a capture file in human-readable form.
func View(args []string, w io.Writer) error {
	filter, rest, err := parseArgs("view", args, nil)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(rest[0], filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	var typeLabel string
	switch {
	case event.Traffic != nil:
		typeLabel = "Traffic"
	case event.Key != nil:
		typeLabel = "Key"
	case event.StateChange != nil:
		typeLabel = "State"
	case event.DriverMsg != nil:
		typeLabel = "Driver"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, connID, event.Direction, event.Layer, typeLabel)

	switch {
	case event.Traffic != nil:
		t := event.Traffic
		fmt.Fprintf(w, "  %s -> %s", t.Initiator, t.Destination)
		if t.Opcode != nil {
			fmt.Fprintf(w, "  %s", t.Opcode)
		} else {
			fmt.Fprintf(w, "  <poll>")
		}
		fmt.Fprintln(w)
		if len(t.Parameters) > 0 {
			fmt.Fprintf(w, "  Params: %s\n", hex.EncodeToString(t.Parameters))
		}
	case event.Key != nil:
		k := event.Key
		action := "pressed"
		if k.Release {
			action = "released"
		}
		fmt.Fprintf(w, "  %s %s", k.Code, action)
		if k.Duration > 0 {
			fmt.Fprintf(w, " after %s", k.Duration)
		}
		fmt.Fprintln(w)
	case event.StateChange != nil:
		s := event.StateChange
		fmt.Fprintf(w, "  %s -> %s", s.OldState, s.NewState)
		if s.Reason != "" {
			fmt.Fprintf(w, " (%s)", s.Reason)
		}
		fmt.Fprintln(w)
	case event.DriverMsg != nil:
		fmt.Fprintf(w, "  [%s] %s\n", event.DriverMsg.Level, event.DriverMsg.Message)
	case event.Error != nil:
		e := event.Error
		fmt.Fprintf(w, "  %s: %s", e.Layer, e.Message)
		if e.Context != "" {
			fmt.Fprintf(w, " (%s)", e.Context)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
