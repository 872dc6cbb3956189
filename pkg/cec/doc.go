// Package cec defines the typed vocabulary of the HDMI-CEC bus: logical
// and physical addresses, device types, opcodes, power status values,
// user-control codes and the Frame type carried on the bus.
//
// These types mirror the wire-level encoding defined by the HDMI-CEC
// specification (and used unchanged by libcec), so a value converts to
// and from its bus representation without lookup tables.
//
// The package has no dependencies on the native driver; higher layers
// (pkg/native, pkg/connection) translate between these types and the
// vendor library.
package cec
