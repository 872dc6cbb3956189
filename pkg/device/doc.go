// Package device tracks the devices seen on the CEC bus.
//
// The model is passive: it never transmits. The connection layer feeds
// it every received frame, and it records what the traffic reveals
// about each logical address. Readers get copies, never live state, so
// a snapshot taken while traffic is flowing stays consistent.
package device
