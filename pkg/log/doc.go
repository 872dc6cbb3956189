// Package log provides structured capture of CEC bus activity.
//
// This package defines the Logger interface and Event types for
// recording everything a connection sees: transmitted and received
// frames, key presses, connection state changes, driver diagnostics
// and errors. It is separate from operational logging (slog) - capture
// produces a complete machine-readable trace for debugging a bus.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	b.Logger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/cec/bus.clog")
//	b.Logger(fl)
//
//	// Both: use MultiLogger
//	b.Logger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # File Format
//
// Capture files use CBOR encoding with integer keys and carry the
// .clog extension. Reader streams them back, optionally filtered.
package log
