// Package native defines the boundary to the vendor CEC library.
//
// The Driver interface is the only contract the adaptation layer
// assumes: open a connection with a callback table, transmit a raw
// frame, enumerate adapters, close. The libcec-backed implementation
// is compiled per target behind the `libcec` build tag; everything
// above this package compiles against the interface alone, which is
// also how tests substitute a scripted stub driver.
//
// Callbacks in the CallbackTable are invoked on a thread owned by the
// driver, at any time between Open returning and Close returning.
// Implementations of the table must return promptly and must not call
// back into the Driver.
package native
