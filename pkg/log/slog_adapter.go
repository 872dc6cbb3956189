package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger.
// Useful for development when you want to see bus activity in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.AdapterPort != "" {
		attrs = append(attrs, slog.String("port", event.AdapterPort))
	}

	switch {
	case event.Traffic != nil:
		attrs = append(attrs,
			slog.String("initiator", event.Traffic.Initiator.String()),
			slog.String("destination", event.Traffic.Destination.String()),
		)
		if event.Traffic.Opcode != nil {
			attrs = append(attrs, slog.String("opcode", event.Traffic.Opcode.String()))
		}
		if len(event.Traffic.Parameters) > 0 {
			attrs = append(attrs, slog.Int("params", len(event.Traffic.Parameters)))
		}
	case event.Key != nil:
		attrs = append(attrs,
			slog.String("key", event.Key.Code.String()),
			slog.Bool("release", event.Key.Release),
		)
		if event.Key.Duration > 0 {
			attrs = append(attrs, slog.Duration("held", event.Key.Duration))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.DriverMsg != nil:
		attrs = append(attrs,
			slog.String("level", event.DriverMsg.Level.String()),
			slog.String("msg", event.DriverMsg.Message),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "cec", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
